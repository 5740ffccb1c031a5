package qdrant

import (
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/caselode/caselode/pkg/vector"
)

// toDistance maps a driver-neutral distance onto Qdrant's enum.
func toDistance(d vector.Distance) (pb.Distance, error) {
	switch d {
	case vector.DistanceCosine:
		return pb.Distance_Cosine, nil
	case vector.DistanceEuclid:
		return pb.Distance_Euclid, nil
	case vector.DistanceDot:
		return pb.Distance_Dot, nil
	default:
		return pb.Distance_UnknownDistance, fmt.Errorf("unsupported distance: %q", d)
	}
}

// toPointID converts a driver id into a Qdrant point id.
func toPointID(id vector.PointID) *pb.PointId {
	if id.IsNum() {
		return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: id.Num()}}
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id.UUID()}}
}

// fromPointID converts a Qdrant point id back to a driver id.
func fromPointID(id *pb.PointId) vector.PointID {
	if id == nil {
		return vector.PointID{}
	}
	if num, ok := id.GetPointIdOptions().(*pb.PointId_Num); ok {
		return vector.NumID(num.Num)
	}
	return vector.UUIDID(id.GetUuid())
}

// toPayload converts a generic payload map into Qdrant payload values.
func toPayload(payload map[string]any) (map[string]*pb.Value, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	out := make(map[string]*pb.Value, len(payload))
	for k, v := range payload {
		val, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

// toValue converts one JSON-ish value into a Qdrant value. Handles the types
// encoding/json produces plus Go integer types used by callers.
func toValue(v any) (*pb.Value, error) {
	switch x := v.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}, nil
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: x}}, nil
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: x}}, nil
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: x}}, nil
	case float32:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: float64(x)}}, nil
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(x)}}, nil
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: x}}, nil
	case uint64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(x)}}, nil
	case map[string]any:
		fields, err := toPayload(x)
		if err != nil {
			return nil, err
		}
		return &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: fields}}}, nil
	case []any:
		values := make([]*pb.Value, len(x))
		for i, item := range x {
			val, err := toValue(item)
			if err != nil {
				return nil, err
			}
			values[i] = val
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}, nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", v)
	}
}

// fromPayload converts Qdrant payload values back into a generic map.
func fromPayload(payload map[string]*pb.Value) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = fromValue(v)
	}
	return out
}

// fromValue converts one Qdrant value back to its JSON-ish form.
func fromValue(v *pb.Value) any {
	switch x := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return x.StringValue
	case *pb.Value_BoolValue:
		return x.BoolValue
	case *pb.Value_DoubleValue:
		return x.DoubleValue
	case *pb.Value_IntegerValue:
		return x.IntegerValue
	case *pb.Value_StructValue:
		return fromPayload(x.StructValue.GetFields())
	case *pb.Value_ListValue:
		items := make([]any, len(x.ListValue.GetValues()))
		for i, item := range x.ListValue.GetValues() {
			items[i] = fromValue(item)
		}
		return items
	default:
		return nil
	}
}
