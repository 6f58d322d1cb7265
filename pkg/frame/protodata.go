// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package frame

// ProtoData is state a dissector attaches to a frame during the first pass
// and reads back on later passes
type ProtoData struct {
	Proto int
	Key   uint32
	Value interface{}
}

// AddProtoData attaches a value to the frame, replacing the previous value
// of the same protocol and key
func (r *Record) AddProtoData(proto int, key uint32, value interface{}) {
	for i := range r.protoData {
		if r.protoData[i].Proto == proto && r.protoData[i].Key == key {
			r.protoData[i].Value = value
			return
		}
	}
	r.protoData = append(r.protoData, ProtoData{Proto: proto, Key: key, Value: value})
}

// GetProtoData returns the value attached by a protocol
func (r *Record) GetProtoData(proto int, key uint32) (interface{}, bool) {
	for _, pd := range r.protoData {
		if pd.Proto == proto && pd.Key == key {
			return pd.Value, true
		}
	}
	return nil, false
}

// RemoveProtoData detaches a value
func (r *Record) RemoveProtoData(proto int, key uint32) {
	for i, pd := range r.protoData {
		if pd.Proto == proto && pd.Key == key {
			r.protoData = append(r.protoData[:i], r.protoData[i+1:]...)
			return
		}
	}
}

// ProtoDataLen returns the number of attached values
func (r *Record) ProtoDataLen() int {
	return len(r.protoData)
}
