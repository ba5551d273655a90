package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriveLetter(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "uppercase drive", path: `C:\files\report.txt`, want: "C"},
		{name: "lowercase drive", path: `d:\pagefile.sys`, want: "D"},
		{name: "bare drive", path: `E:`, want: "E"},
		{name: "relative path", path: `report.txt`, wantErr: true},
		{name: "digit drive", path: `1:\x`, wantErr: true},
		{name: "empty path", path: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			letter, err := DriveLetter(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, letter)
		})
	}
}

func TestHashes(t *testing.T) {
	data := []byte("raw device copy")
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", GetMD5([]byte("abc")))
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", GetSHA1([]byte("abc")))
	assert.Len(t, GetMD5(data), 32)
	assert.Len(t, GetSHA1(data), 40)
}
