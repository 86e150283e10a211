package trace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/classdispatch/dispatch"
)

func next(ctx context.Context, obj *dispatch.Object, args *dispatch.Args) (any, error) {
	return dispatch.NextMethod(ctx)
}

func done(ctx context.Context, obj *dispatch.Object, args *dispatch.Args) (any, error) {
	return "done", nil
}

func recordedResolver(t *testing.T) (*dispatch.Resolver, *Recorder) {
	t.Helper()
	rec := NewRecorder()
	r := dispatch.New(dispatch.WithObserver(rec))
	r.Register("print", "ordered", next)
	r.Register("print", "factor", next)
	r.Register("print", dispatch.DefaultClass, done)
	r.Register("summary", "factor", next)
	return r, rec
}

func TestRecorderGroupsChains(t *testing.T) {
	r, rec := recordedResolver(t)
	ctx := context.Background()
	obj := dispatch.NewObject(nil, "ordered", "factor")

	if _, err := r.Dispatch(ctx, "print", obj, nil); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if _, err := r.Dispatch(ctx, "summary", obj, nil); !errors.Is(err, dispatch.ErrNoNextMethod) {
		t.Fatalf("summary err = %v, want ErrNoNextMethod", err)
	}
	if _, err := r.Dispatch(ctx, "format", obj, nil); !errors.Is(err, dispatch.ErrNoApplicableMethod) {
		t.Fatalf("format err = %v, want ErrNoApplicableMethod", err)
	}

	recording := rec.Recording()
	if len(recording.Chains) != 3 {
		t.Fatalf("chains = %d, want 3", len(recording.Chains))
	}

	printChain := recording.Chains[0]
	if printChain.Generic != "print" || !printChain.Succeeded() {
		t.Errorf("print chain = %+v", printChain)
	}
	if strings.Join(printChain.Sequence, ",") != "ordered,factor,default" {
		t.Errorf("print sequence = %v", printChain.Sequence)
	}
	var steps []string
	for _, s := range printChain.Steps {
		steps = append(steps, s.Kind+":"+s.Class)
	}
	if got := strings.Join(steps, " "); got != "dispatch:ordered next:factor next:default" {
		t.Errorf("print steps = %s", got)
	}

	summary := recording.Chains[1]
	if summary.Succeeded() {
		t.Error("summary chain reported success")
	}
	if last := summary.Steps[len(summary.Steps)-1]; last.Kind != "no-next" || last.Class != "factor" {
		t.Errorf("summary last step = %+v", last)
	}

	format := recording.Chains[2]
	if format.Succeeded() || len(format.Steps) != 1 || format.Steps[0].Kind != "no-method" {
		t.Errorf("format chain = %+v", format)
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Error("Reset left events behind")
	}
}

func TestRecordingCBORRoundTrip(t *testing.T) {
	r, rec := recordedResolver(t)
	if _, err := r.Dispatch(context.Background(), "print", dispatch.NewObject(nil, "factor"), nil); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	original := rec.Recording()

	data, err := MarshalRecording(original)
	if err != nil {
		t.Fatalf("MarshalRecording failed: %v", err)
	}
	again, err := MarshalRecording(original)
	if err != nil {
		t.Fatalf("second MarshalRecording failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("canonical encoding is not deterministic")
	}

	decoded, err := UnmarshalRecording(data)
	if err != nil {
		t.Fatalf("UnmarshalRecording failed: %v", err)
	}
	if len(decoded.Chains) != 1 {
		t.Fatalf("decoded chains = %d, want 1", len(decoded.Chains))
	}
	got, want := decoded.Chains[0], original.Chains[0]
	if got.ID != want.ID || got.Generic != want.Generic || len(got.Steps) != len(want.Steps) {
		t.Errorf("decoded chain = %+v, want %+v", got, want)
	}
	for i := range want.Steps {
		if got.Steps[i] != want.Steps[i] {
			t.Errorf("step %d = %+v, want %+v", i, got.Steps[i], want.Steps[i])
		}
	}

	if _, err := UnmarshalRecording([]byte{0xff, 0x00}); err == nil {
		t.Error("UnmarshalRecording accepted garbage")
	}
}

func TestRecordingYAML(t *testing.T) {
	r, rec := recordedResolver(t)
	if _, err := r.Dispatch(context.Background(), "print", dispatch.NewObject(nil, "factor"), nil); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	data, err := MarshalRecordingYAML(rec.Recording())
	if err != nil {
		t.Fatalf("MarshalRecordingYAML failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{"chains:", "generic: print", "kind: dispatch", "class: factor"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}
