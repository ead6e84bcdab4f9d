package ferr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/context-fabric/fabric/ferr"
)

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ferr.CorruptStore{Path: "v1/meta.json", Reason: "bad magic"}, `corrupt store at "v1/meta.json": bad magic`},
		{&ferr.VersionMismatch{Got: 1, Want: 2}, "version mismatch: got 0x1, want 0x2"},
		{&ferr.MissingFeature{Name: "sp", Path: "features/sp.str"}, `missing feature "sp": file "features/sp.str" not found`},
		{&ferr.UnknownFeature{Name: "xyz"}, `unknown feature "xyz"`},
		{&ferr.UnknownType{Name: "clause"}, `unknown type "clause"`},
		{&ferr.UnknownFormat{Name: "text-orig-full"}, `unknown text format "text-orig-full"`},
		{&ferr.ArrayOutOfRange{Array: "levUp", Index: 12, Bound: 10}, "levUp: index 12 out of range [0, 10)"},
		{&ferr.UnknownName{Kind: "feature", Name: "vt"}, `unknown feature "vt"`},
		{&ferr.Timeout{ElapsedMS: 500, Count: 3}, "timeout after 500ms (partial count 3)"},
		{&ferr.Cancelled{}, "cancelled"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.err.Error())
	}
}

func TestIoErrorUnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := &ferr.IoError{Path: "warp/order.bin", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestErrorsAsRecoversStructuredDetail(t *testing.T) {
	var err error = &ferr.ArrayOutOfRange{Array: "oslots", Index: 99, Bound: 12}

	var oob *ferr.ArrayOutOfRange
	ok := errors.As(err, &oob)
	assert.True(t, ok)
	assert.Equal(t, 99, oob.Index)
}
