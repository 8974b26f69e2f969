package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarIDUnmarshalString(t *testing.T) {
	var c CarID
	require.NoError(t, json.Unmarshal([]byte(`"red-falcon"`), &c))
	assert.Equal(t, "red-falcon", c.String())
	assert.False(t, c.IsNumeric())
}

func TestCarIDUnmarshalNumber(t *testing.T) {
	var c CarID
	require.NoError(t, json.Unmarshal([]byte(`7`), &c))
	assert.Equal(t, "7", c.String())
	assert.True(t, c.IsNumeric())
}

func TestCarIDNumberIsCanonicalised(t *testing.T) {
	var a, b CarID
	require.NoError(t, json.Unmarshal([]byte(`1e3`), &a))
	require.NoError(t, json.Unmarshal([]byte(`1000`), &b))
	assert.Equal(t, a.String(), b.String())
}

func TestCarIDZeroAndEmptyArePresent(t *testing.T) {
	var body struct {
		Car   *CarID `json:"carID"`
		Empty *CarID `json:"empty"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"carID":0,"empty":""}`), &body))
	require.NotNil(t, body.Car)
	require.NotNil(t, body.Empty)
	assert.Equal(t, "0", body.Car.String())
	assert.Equal(t, "", body.Empty.String())
}

func TestCarIDNullLeavesPointerNil(t *testing.T) {
	var body struct {
		Car *CarID `json:"carID"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"carID":null}`), &body))
	assert.Nil(t, body.Car)
}

func TestCarIDRejectsObjects(t *testing.T) {
	var c CarID
	err := json.Unmarshal([]byte(`{"id":1}`), &c)
	assert.ErrorIs(t, err, ErrInvalidCarID)

	err = json.Unmarshal([]byte(`true`), &c)
	assert.ErrorIs(t, err, ErrInvalidCarID)
}

func TestCarIDMarshalKeepsWireForm(t *testing.T) {
	data, err := json.Marshal([]CarID{NumericCarID(42), StringCarID("42")})
	require.NoError(t, err)
	assert.JSONEq(t, `[42,"42"]`, string(data))
}

func TestRestoreCarID(t *testing.T) {
	c, err := RestoreCarID("12.5", true)
	require.NoError(t, err)
	assert.Equal(t, NumericCarID(12.5), c)

	c, err = RestoreCarID("abc", false)
	require.NoError(t, err)
	assert.Equal(t, StringCarID("abc"), c)

	_, err = RestoreCarID("abc", true)
	assert.ErrorIs(t, err, ErrInvalidCarID)
}
