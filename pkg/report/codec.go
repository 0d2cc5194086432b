package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/i2cscan/pkg/probe"
)

// Codec serializes reports for publishing.
type Codec interface {
	Name() string
	Encode(*Report) ([]byte, error)
	Decode([]byte) (*Report, error)
}

// Codecs by name.
var (
	JSON  Codec = jsonCodec{}
	Proto Codec = protoCodec{}
)

// CodecByName finds a codec, "" means JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", JSON.Name():
		return JSON, nil
	case Proto.Name():
		return Proto, nil
	}
	return nil, fmt.Errorf("unknown report format %q", name)
}

type jsonReport struct {
	Host    string    `json:"host"`
	Bus     string    `json:"bus"`
	Time    time.Time `json:"time"`
	Count   int       `json:"count"`
	Devices []float64 `json:"devices"`
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(r *Report) ([]byte, error) {
	return json.Marshal(&jsonReport{
		Host:    r.Host,
		Bus:     r.Bus,
		Time:    r.Time,
		Count:   r.Devices.Count(),
		Devices: numbers(r.Devices),
	})
}

func (jsonCodec) Decode(data []byte) (*Report, error) {
	var jr jsonReport
	if err := json.Unmarshal(data, &jr); err != nil {
		return nil, err
	}
	devices, err := validDevices(jr.Devices)
	if err != nil {
		return nil, err
	}
	return &Report{Host: jr.Host, Bus: jr.Bus, Time: jr.Time, Devices: devices}, nil
}

type protoCodec struct{}

func (protoCodec) Name() string { return "proto" }

func (protoCodec) Encode(r *Report) ([]byte, error) {
	addrs := numbers(r.Devices)
	values := make([]*structpb.Value, len(addrs))
	for n, a := range addrs {
		values[n] = numberValue(a)
	}
	s := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"host":  stringValue(r.Host),
			"bus":   stringValue(r.Bus),
			"time":  stringValue(r.Time.Format(time.RFC3339Nano)),
			"count": numberValue(float64(len(addrs))),
			"devices": {
				Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: values}},
			},
		},
	}
	return proto.Marshal(s)
}

func (protoCodec) Decode(data []byte) (*Report, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	r := &Report{
		Host: s.Fields["host"].GetStringValue(),
		Bus:  s.Fields["bus"].GetStringValue(),
	}
	if ts := s.Fields["time"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid report time: %v", err)
		}
		r.Time = t
	}
	var addrs []float64
	for _, v := range s.Fields["devices"].GetListValue().GetValues() {
		addrs = append(addrs, v.GetNumberValue())
	}
	devices, err := validDevices(addrs)
	if err != nil {
		return nil, err
	}
	r.Devices = devices
	return r, nil
}

func numbers(l probe.DeviceList) []float64 {
	addrs := make([]float64, len(l))
	for n, a := range l {
		addrs[n] = float64(a)
	}
	return addrs
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}
