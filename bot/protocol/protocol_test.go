package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidLines(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		jobID  string
		phase  Phase
		detail string
	}{
		{"progress with detail", "SOAP_STATUS 123456789012345 PROGRESS START", "123456789012345", PhaseProgress, "START"},
		{"success with serial", "SOAP_STATUS 123456789012345 SUCCESS ABC123456", "123456789012345", PhaseSuccess, "ABC123456"},
		{"success skip", "SOAP_STATUS 999999999999999 SUCCESS SKIP", "999999999999999", PhaseSuccess, DetailSkip},
		{"lottery", "SOAP_STATUS 123456789012345 LOTTERY SKIP", "123456789012345", PhaseLottery, DetailSkip},
		{"error mismatch", "SOAP_STATUS 123456789012345 ERROR SERIAL_MISMATCH", "123456789012345", PhaseError, DetailSerialMismatch},
		{"bare phase", "SOAP_STATUS 123456789012345 QUEUED", "123456789012345", PhaseQueued, ""},
		{"case insensitive", "soap_status 123456789012345 progress queued", "123456789012345", PhaseProgress, "QUEUED"},
		{"25 digit id", "SOAP_STATUS 1234567890123456789012345 START", "1234567890123456789012345", PhaseStart, ""},
		{"surrounding space", "  SOAP_STATUS 123456789012345 START  ", "123456789012345", PhaseStart, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Parse(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.jobID, ev.JobID)
			assert.Equal(t, tt.phase, ev.Phase)
			assert.Equal(t, tt.detail, ev.Detail)
		})
	}
}

func TestParseMalformedLines(t *testing.T) {
	lines := []string{
		"",
		"SOAP_STATUS",
		"SOAP_STATUS 123 START",                       // id too short
		"SOAP_STATUS 12345678901234567890123456 START", // id too long
		"SOAP_STATUS 123456789012345",                 // missing phase
		"SOAP_STATUS 123456789012345 START EXTRA TOKENS HERE",
		"RESPONSE_ACK 123456789012345 START",
		"SOAP_STATUS abc456789012345 START",
		"hello world",
	}
	for _, line := range lines {
		_, ok := Parse(line)
		assert.False(t, ok, "line %q should not parse", line)
	}
}

func TestAck(t *testing.T) {
	ev, ok := Parse("SOAP_STATUS 123456789012345 PROGRESS QUEUED")
	require.True(t, ok)
	assert.Equal(t, "RESPONSE_ACK 123456789012345 PROGRESS", ev.Ack())
}

func TestPercentLookup(t *testing.T) {
	ev := StatusEvent{Phase: PhaseProgress, Detail: "SYSTEM_TRANSFER_SUCCESS"}
	p, ok := ev.Percent()
	require.True(t, ok)
	assert.Equal(t, 95, p)

	ev = StatusEvent{Phase: PhaseSuccess}
	p, ok = ev.Percent()
	require.True(t, ok)
	assert.Equal(t, 100, p)

	// unknown detail under PROGRESS is acked but produces no update
	ev = StatusEvent{Phase: PhaseProgress, Detail: "WARMING_UP"}
	_, ok = ev.Percent()
	assert.False(t, ok)
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusEvent{Phase: PhaseSuccess}.Terminal())
	assert.True(t, StatusEvent{Phase: PhaseLottery}.Terminal())
	assert.False(t, StatusEvent{Phase: PhaseError}.Terminal())
	assert.False(t, StatusEvent{Phase: PhaseProgress}.Terminal())
}
