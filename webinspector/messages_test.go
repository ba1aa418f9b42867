package webinspector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportIdentifierRoundTrips(t *testing.T) {
	msg := ReportIdentifierMessage{ConnectionID: "id1"}
	arg := msg.toArgument()
	require.Equal(t, "id1", arg[ConnectionIdentifier.wireString()])

	decoded, err := DecodeMessage(SelectorReportIdentifier, map[string]interface{}(arg))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestReportIdentifierMissingFieldIsDecodeError(t *testing.T) {
	_, err := DecodeMessage(SelectorReportIdentifier, map[string]interface{}{})
	require.Error(t, err)
}

func TestApplicationConnectedRoundTrips(t *testing.T) {
	msg := ApplicationConnectedMessage{InspectorApplication{
		BundleID:      "com.apple.mobilesafari",
		ApplicationID: "PID:176",
		Name:          "Safari",
		IsActive:      true,
		IsProxy:       false,
	}}

	decoded, err := DecodeMessage(msg.Selector(), map[string]interface{}(msg.toArgument()))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestApplicationSentListingRoundTrips(t *testing.T) {
	msg := ApplicationSentListingMessage{
		ApplicationID: "PID:176",
		Listing: []InspectorPage{
			{PageID: 1, Title: "t", Type: "page", URL: "https://example.com"},
		},
	}

	decoded, err := DecodeMessage(msg.Selector(), map[string]interface{}(msg.toArgument()))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestForwardSocketSetupRoundTrips(t *testing.T) {
	msg := ForwardSocketSetupMessage{
		ApplicationID:      "PID:176",
		AutomaticallyPause: true,
		ConnectionID:       "conn1",
		PageID:             1,
		Sender:             "945f1146-2aa3-4875-a4c2-21cace3c4ade",
	}

	decoded, err := DecodeMessage(msg.Selector(), map[string]interface{}(msg.toArgument()))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestDecodeMessageUnknownSelectorErrors(t *testing.T) {
	_, err := DecodeMessage(Selector("_rpc_bogus:"), map[string]interface{}{})
	require.Error(t, err)
}
