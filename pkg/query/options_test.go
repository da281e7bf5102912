package query

import "testing"

type listOptions struct {
	Include    []string `url:"include[],omitempty"`
	State      *string  `url:"state,omitempty"`
	PerPage    int      `url:"per_page,omitempty"`
	SearchTerm string   `url:"search_term,omitempty"`
}

func TestFromStruct(t *testing.T) {
	state := "available"

	tests := []struct {
		name string
		opts any
		mode Mode
		want string
	}{
		{
			name: "nil options",
			opts: nil,
			mode: Standard,
			want: "",
		},
		{
			name: "array values keep order in duplicate mode",
			opts: &listOptions{Include: []string{"term", "teachers"}, PerPage: 50},
			mode: DuplicateKeys,
			want: "include%5B%5D=term&include%5B%5D=teachers&per_page=50",
		},
		{
			name: "array values collapse in standard mode",
			opts: &listOptions{Include: []string{"term", "teachers"}},
			mode: Standard,
			want: "include%5B%5D=teachers",
		},
		{
			name: "omitted zero values",
			opts: &listOptions{State: &state},
			mode: Standard,
			want: "state=available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromStruct(tt.mode, tt.opts)
			if err != nil {
				t.Fatalf("FromStruct() error = %v", err)
			}
			if p.Mode() != tt.mode {
				t.Errorf("Mode() = %v, want %v", p.Mode(), tt.mode)
			}
			if got := p.Encode(""); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromStruct_NotAStruct(t *testing.T) {
	if _, err := FromStruct(Standard, 42); err == nil {
		t.Error("expected error for non-struct options")
	}
}
