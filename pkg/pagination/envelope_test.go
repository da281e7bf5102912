package pagination

import (
	"errors"
	"testing"
)

type quizSubmission struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

func TestJSON_Envelopes(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope
		body    string
		wantIDs []int64
		wantErr bool
	}{
		{"bare array", BareArray, `[{"id":1},{"id":2}]`, []int64{1, 2}, false},
		{"bare array with whitespace", BareArray, "\n  [{\"id\":7}]\n", []int64{7}, false},
		{"bare empty array", BareArray, `[]`, nil, false},
		{"bare null", BareArray, `null`, nil, false},
		{"empty body", BareArray, ``, nil, false},
		{"bare array given object", BareArray, `{"quiz_submissions":[]}`, nil, true},
		{"single key", SingleKey("quiz_submissions"), `{"quiz_submissions":[{"id":3}],"quizzes":[{"id":9}]}`, []int64{3}, false},
		{"single key null property", SingleKey("quiz_submissions"), `{"quiz_submissions":null}`, nil, false},
		{"single key null body", SingleKey("quiz_submissions"), `null`, nil, false},
		{"single key missing property", SingleKey("quiz_submissions"), `{"submissions":[]}`, nil, true},
		{"single key given array", SingleKey("quiz_submissions"), `[{"id":1}]`, nil, true},
		{"single key property not array", SingleKey("quiz_submissions"), `{"quiz_submissions":{"id":1}}`, nil, true},
		{"element shape mismatch", BareArray, `[{"id":"one"}]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := JSON[quizSubmission](tt.env)([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decode error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(items) != len(tt.wantIDs) {
				t.Fatalf("decoded %d elements, want %d", len(items), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if items[i].ID != id {
					t.Errorf("element %d id = %d, want %d", i, items[i].ID, id)
				}
			}
		})
	}
}

func TestEnvelope_String(t *testing.T) {
	if got := BareArray.String(); got != "bare array" {
		t.Errorf("BareArray.String() = %q", got)
	}
	if got := SingleKey("grading_periods").String(); got != `"grading_periods" envelope` {
		t.Errorf("SingleKey.String() = %q", got)
	}
	if SingleKey("x").Key() != "x" || BareArray.Key() != "" {
		t.Error("Key() mismatch")
	}
}

func TestDecodeError_Unwrap(t *testing.T) {
	cause := errors.New("bad json")
	err := error(&DecodeError{Index: 4, URL: url2, Err: cause})

	if !errors.Is(err, cause) {
		t.Error("DecodeError should unwrap to its cause")
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Index != 4 {
		t.Errorf("errors.As() = %+v", de)
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}
