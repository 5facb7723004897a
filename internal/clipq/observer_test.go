package clipq_test

import (
	"errors"
	"testing"

	"clipq/internal/clipq"
	"clipq/internal/testutil"
)

func TestMultiObserver(t *testing.T) {
	a := testutil.NewRecordingObserver()
	b := testutil.NewRecordingObserver()
	m := clipq.MultiObserver{a, b, clipq.NopObserver{}}

	m.OnProgress(1, 3)
	m.OnStatus("working")
	m.OnArtifactDeleted("/in/x.mp4")
	m.OnAccountProgress("acct")
	m.OnError(errors.New("boom"))
	m.OnFinished(true, "done")

	for name, o := range map[string]*testutil.RecordingObserver{"a": a, "b": b} {
		if len(o.Progress) != 1 || len(o.Statuses) != 1 || len(o.Deleted) != 1 ||
			o.AccountProgress["acct"] != 1 || len(o.Errors) != 1 || o.Finished != 1 {
			t.Errorf("observer %s missed events: %+v", name, o)
		}
	}
}

func TestPublishResult_OK(t *testing.T) {
	tests := []struct {
		name string
		res  *clipq.PublishResult
		want bool
	}{
		{"nil", nil, false},
		{"no steps", &clipq.PublishResult{}, false},
		{"all ok", &clipq.PublishResult{Steps: []clipq.StepResult{{Step: "upload", OK: true}, {Step: "attach", OK: true}}}, true},
		{"one failed", &clipq.PublishResult{Steps: []clipq.StepResult{{Step: "upload", OK: true}, {Step: "attach"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.OK(); got != tt.want {
				t.Errorf("OK() = %v, want %v", got, tt.want)
			}
		})
	}
}
