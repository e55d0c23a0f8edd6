package protect

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tso/internal/logging"
)

func TestGuard(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		strict  bool
		fn      func() error
		wantErr bool
		logged  bool
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "lenient swallows", fn: func() error { return boom }, logged: true},
		{name: "strict propagates", strict: true, fn: func() error { return boom }, wantErr: true, logged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Guard(logging.New(&buf, false), tt.strict, "reorder", tt.fn)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, boom)
				var perr *Error
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "reorder", perr.Op)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.logged, bytes.Contains(buf.Bytes(), []byte("reorder: boom")))
		})
	}
}
