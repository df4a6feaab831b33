package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentSubjectExactlyOne(t *testing.T) {
	_, err := NewPaymentSubject("", "")
	assert.ErrorIs(t, err, ErrNoPaymentSubject)

	_, err = NewPaymentSubject("bkg_1", "mem_1")
	assert.ErrorIs(t, err, ErrAmbiguousPaymentSubject)

	s, err := NewPaymentSubject("bkg_1", "")
	require.NoError(t, err)
	id, ok := s.BookingID()
	assert.True(t, ok)
	assert.Equal(t, "bkg_1", id)
	_, ok = s.MembershipID()
	assert.False(t, ok)

	s, err = NewPaymentSubject("", "mem_1")
	require.NoError(t, err)
	id, ok = s.MembershipID()
	assert.True(t, ok)
	assert.Equal(t, "mem_1", id)
	_, ok = s.BookingID()
	assert.False(t, ok)
}
