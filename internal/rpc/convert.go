package rpc

import (
	"fmt"
	"math"

	"fortio.org/safecast"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region observation
// ObservationToStruct encodes a classify request.
func ObservationToStruct(d sensor.DigitalObservation, a sensor.AnalogObservation) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"inductive":   d.Inductive,
		"capacitive":  d.Capacitive,
		"motion":      d.Motion,
		"light_level": int(a.LightLevel),
		"sound_level": int(a.SoundLevel),
	})
}

// ObservationFromStruct decodes a classify request. The analog readings
// are required and must be whole numbers in the uint16 range; missing flags
// read as false.
func ObservationFromStruct(s *structpb.Struct) (sensor.DigitalObservation, sensor.AnalogObservation, error) {
	f := s.GetFields()
	d := sensor.DigitalObservation{
		Inductive:  f["inductive"].GetBoolValue(),
		Capacitive: f["capacitive"].GetBoolValue(),
		Motion:     f["motion"].GetBoolValue(),
	}
	light, err := reading(f, "light_level")
	if err != nil {
		return d, sensor.AnalogObservation{}, err
	}
	sound, err := reading(f, "sound_level")
	if err != nil {
		return d, sensor.AnalogObservation{}, err
	}
	return d, sensor.AnalogObservation{LightLevel: light, SoundLevel: sound}, nil
}

func reading(f map[string]*structpb.Value, key string) (uint16, error) {
	v, ok := f[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s is not a number", key)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("%s %v is not a whole number", key, n.NumberValue)
	}
	r, err := safecast.Convert[uint16](n.NumberValue)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return r, nil
}

// #endregion observation

// #region result
// ResultToStruct encodes a classification result.
func ResultToStruct(r classifier.Result) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"material":     r.Material.String(),
		"description":  r.Description,
		"confidence":   r.Confidence,
		"valid":        r.Valid,
		"matches":      r.Matches,
		"translucency": r.Bands.Translucency.String(),
		"sound":        r.Bands.Sound.String(),
	})
}

// ResultFromStruct decodes a classification result.
func ResultFromStruct(s *structpb.Struct) (classifier.Result, error) {
	f := s.GetFields()
	var r classifier.Result
	m, err := classifier.ParseMaterial(f["material"].GetStringValue())
	if err != nil {
		return r, err
	}
	if err := r.Bands.Translucency.UnmarshalText([]byte(f["translucency"].GetStringValue())); err != nil {
		return r, err
	}
	if err := r.Bands.Sound.UnmarshalText([]byte(f["sound"].GetStringValue())); err != nil {
		return r, err
	}
	r.Material = m
	r.Description = f["description"].GetStringValue()
	r.Confidence = f["confidence"].GetNumberValue()
	r.Valid = f["valid"].GetBoolValue()
	r.Matches = int(f["matches"].GetNumberValue())
	return r, nil
}

// #endregion result

// #region counters
// CountersToStruct encodes the usage statistics.
func CountersToStruct(c stats.Counters) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"total":           c.Total,
		"metal":           c.Metal,
		"paper":           c.Paper,
		"plastic":         c.Plastic,
		"glass":           c.Glass,
		"errors":          c.Errors,
		"valid":           c.Valid,
		"avg_confidence":  c.AvgConfidence,
		"operating_hours": c.OperatingHours,
	})
}

// CountersFromStruct decodes the usage statistics.
func CountersFromStruct(s *structpb.Struct) stats.Counters {
	f := s.GetFields()
	count := func(key string) uint32 {
		n, err := safecast.Convert[uint32](f[key].GetNumberValue())
		if err != nil {
			return 0
		}
		return n
	}
	return stats.Counters{
		Total:          count("total"),
		Metal:          count("metal"),
		Paper:          count("paper"),
		Plastic:        count("plastic"),
		Glass:          count("glass"),
		Errors:         count("errors"),
		Valid:          count("valid"),
		AvgConfidence:  f["avg_confidence"].GetNumberValue(),
		OperatingHours: f["operating_hours"].GetNumberValue(),
	}
}

// #endregion counters
