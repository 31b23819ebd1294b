package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_DecodeSuccess(t *testing.T) {
	var r Result[[]Circuit]
	err := json.Unmarshal([]byte(`{"status":"success","data":[{"id":"1","site_name":"Main Office"}]}`), &r)
	require.NoError(t, err)

	data, ok := r.Get()
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "Main Office", data[0].SiteName)
}

func TestResult_DecodeError(t *testing.T) {
	var r Result[Circuit]
	err := json.Unmarshal([]byte(`{"status":"error","message":"duplicate ckt_id"}`), &r)
	require.NoError(t, err)

	f, failed := r.Failure()
	require.True(t, failed)
	assert.Equal(t, FailureServer, f.Kind)
	assert.Equal(t, "duplicate ckt_id", f.Message)
	assert.EqualError(t, r.Err(), "duplicate ckt_id")
}

func TestResult_DecodeUnknownStatus(t *testing.T) {
	var r Result[string]
	err := json.Unmarshal([]byte(`{"status":"pending"}`), &r)
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestResult_DecodeNullData(t *testing.T) {
	var r Result[*Circuit]
	require.NoError(t, json.Unmarshal([]byte(`{"status":"success","data":null}`), &r))

	data, ok := r.Get()
	assert.True(t, ok)
	assert.Nil(t, data)
}

func TestResult_MarshalEnvelope(t *testing.T) {
	b, err := json.Marshal(Success("Successfully started report"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","data":"Successfully started report"}`, string(b))

	b, err = json.Marshal(Fail[string](FailureServer, "Invalid auth"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"Invalid auth"}`, string(b))
}

func TestResult_MatchAndFold(t *testing.T) {
	var got string
	Success(3).Match(
		func(n int) { got = "ok" },
		func(f Failure) { got = "failed: " + f.Message },
	)
	assert.Equal(t, "ok", got)

	label := Fold(Fail[int](FailureTransport, "unreachable"),
		func(n int) string { return "ok" },
		func(f Failure) string { return f.Kind.String() + ": " + f.Message },
	)
	assert.Equal(t, "transport: unreachable", label)

	mapped := Map(Success(2), func(n int) string { return "two" })
	v, ok := mapped.Get()
	assert.True(t, ok)
	assert.Equal(t, "two", v)
}

func TestCircuit_GetSet(t *testing.T) {
	c := Circuit{ID: "abc", SiteName: "Main Office"}

	v, ok := c.Get(FieldSiteName)
	require.True(t, ok)
	assert.Equal(t, "Main Office", v)

	require.NoError(t, c.Set(FieldBwMbps, "100"))
	assert.Equal(t, "100", c.BwMbps)

	assert.ErrorIs(t, c.Set("colour", "red"), ErrUnknownField)
	_, ok = c.Get("colour")
	assert.False(t, ok)
}

func TestFieldsCatalogue(t *testing.T) {
	assert.Len(t, Fields, 19)
	assert.Len(t, AllFields, 20)
	assert.Equal(t, FieldID, AllFields[0])
	for _, f := range AllFields {
		assert.True(t, IsField(f), f)
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "Site Name", Header("site_name"))
	assert.Equal(t, "Rtr Name Z Loc", Header("rtr_name_z_loc"))
	assert.Equal(t, "State", Header("state"))
}

func TestCircuitDTO_RoundTrip(t *testing.T) {
	c := Circuit{SiteName: "Main Office", CktID: "C1", RouterIP: "10.0.0.1"}
	got := DTOFromCircuit(c).Circuit("new-id")
	c.ID = "new-id"
	assert.Equal(t, c, got)

	var dto CircuitDTO
	require.NoError(t, json.Unmarshal([]byte(`{"site_name":"Branch Office"}`), &dto))
	assert.Equal(t, Circuit{ID: "x", SiteName: "Branch Office"}, dto.Circuit("x"))
}
