package trace

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// cborEncMode uses canonical encoding so equal recordings encode to equal
// bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalRecording serializes a Recording to CBOR bytes.
func MarshalRecording(rec *Recording) ([]byte, error) {
	return cborEncMode.Marshal(rec)
}

// UnmarshalRecording deserializes a Recording from CBOR bytes.
func UnmarshalRecording(data []byte) (*Recording, error) {
	var rec Recording
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("trace: unmarshal recording: %w", err)
	}
	return &rec, nil
}

// MarshalRecordingYAML renders a Recording as YAML.
func MarshalRecordingYAML(rec *Recording) ([]byte, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("trace: marshal yaml: %w", err)
	}
	return data, nil
}
