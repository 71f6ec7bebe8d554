package converge

import (
	"errors"
	"testing"
)

func TestContainsAll(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		markers []string
		output  string
		wantErr bool
	}{
		"both present": {
			markers: []string{"Adding proxy", "Removing proxy"},
			output:  "Adding proxy a\nRemoving proxy a\n",
		},
		"order does not matter": {
			markers: []string{"Adding proxy", "Removing proxy"},
			output:  "Removing proxy a\nAdding proxy b\n",
		},
		"one missing": {
			markers: []string{"Adding proxy", "Removing proxy"},
			output:  "Adding proxy a\n",
			wantErr: true,
		},
		"empty output": {
			markers: []string{"Adding proxy"},
			output:  "",
			wantErr: true,
		},
		"case sensitive": {
			markers: []string{"Adding proxy"},
			output:  "adding proxy",
			wantErr: true,
		},
		"no markers": {
			output: "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := ContainsAll(tc.markers...)(tc.output)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsatisfied) {
					t.Errorf("error = %v, want ErrUnsatisfied", err)
				}
				return
			}
			if err != nil {
				t.Errorf("error = %v, want nil", err)
			}
		})
	}
}
