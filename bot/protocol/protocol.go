// Package protocol parses the line-oriented status protocol emitted by
// the external transfer worker and maps stage tokens onto progress
// percentages.
package protocol

import (
	"fmt"
	"regexp"
	"strings"
)

// Phase is the coarse job stage token reported by the worker.
type Phase string

const (
	PhaseStart                    Phase = "START"
	PhaseQueued                   Phase = "QUEUED"
	PhaseCleanintyInit            Phase = "CLEANINTY_INIT"
	PhaseSerialCheckAttempt       Phase = "SERIAL_CHECK_ATTEMPT"
	PhaseEshopRegionChangeAttempt Phase = "ESHOP_REGION_CHANGE_ATTEMPT"
	PhaseEshopRegionChangeSuccess Phase = "ESHOP_REGION_CHANGE_SUCCESS"
	PhaseSystemTransferAttempt    Phase = "SYSTEM_TRANSFER_ATTEMPT"
	PhaseEshopDeleteSuccess       Phase = "ESHOP_DELETE_SUCCESS"
	PhaseSystemTransferSuccess    Phase = "SYSTEM_TRANSFER_SUCCESS"
	PhaseSuccess                  Phase = "SUCCESS"
	PhaseLottery                  Phase = "LOTTERY"
	PhaseError                    Phase = "ERROR"
	PhaseProgress                 Phase = "PROGRESS"
)

// DetailSkip marks a SUCCESS/LOTTERY event without a serial token.
const DetailSkip = "SKIP"

// DetailSerialMismatch is the ERROR detail for a serial check failure.
const DetailSerialMismatch = "SERIAL_MISMATCH"

// StatusEvent is one parsed worker report. JobID stays a string: the
// grammar admits ids wider than 63 bits.
type StatusEvent struct {
	JobID  string
	Phase  Phase
	Detail string
}

// Ack renders the deterministic acknowledgment line for the event.
func (e StatusEvent) Ack() string {
	return fmt.Sprintf("RESPONSE_ACK %s %s", e.JobID, e.Phase)
}

// Terminal reports whether the event completes the job successfully.
func (e StatusEvent) Terminal() bool {
	return e.Phase == PhaseSuccess || e.Phase == PhaseLottery
}

// Percent resolves the event to a progress percentage. PROGRESS events
// look up their detail token; everything else looks up the phase.
// Unknown tokens report ok=false and must not update the surface.
func (e StatusEvent) Percent() (int, bool) {
	if e.Phase == PhaseProgress {
		p, ok := percentByToken[e.Detail]
		return p, ok
	}
	p, ok := percentByToken[string(e.Phase)]
	return p, ok
}

// Caption returns the user-facing description for the event's stage.
func (e StatusEvent) Caption() string {
	token := string(e.Phase)
	if e.Phase == PhaseProgress {
		token = e.Detail
	}
	if c, ok := captionByToken[token]; ok {
		return c
	}
	return "Working..."
}

var statusLine = regexp.MustCompile(`(?i)^SOAP_STATUS\s+([0-9]{15,25})\s+([A-Z_]+)(?:\s+([A-Z0-9_]+))?\s*$`)

// Parse matches one worker line against the status grammar. Lines that
// do not match yield ok=false: no event, no ack.
func Parse(line string) (StatusEvent, bool) {
	m := statusLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return StatusEvent{}, false
	}
	ev := StatusEvent{
		JobID:  m[1],
		Phase:  Phase(strings.ToUpper(m[2])),
		Detail: strings.ToUpper(m[3]),
	}
	return ev, true
}

// percentByToken is the fixed stage→percentage table. SUCCESS and
// LOTTERY both land on 100; LOTTERY means no system transfer was needed.
var percentByToken = map[string]int{
	string(PhaseStart):                    0,
	string(PhaseQueued):                   10,
	string(PhaseCleanintyInit):            20,
	string(PhaseSerialCheckAttempt):       35,
	string(PhaseEshopRegionChangeAttempt): 50,
	string(PhaseEshopRegionChangeSuccess): 65,
	string(PhaseEshopDeleteSuccess):       75,
	string(PhaseSystemTransferAttempt):    85,
	string(PhaseSystemTransferSuccess):    95,
	string(PhaseSuccess):                  100,
	string(PhaseLottery):                  100,
}

var captionByToken = map[string]string{
	string(PhaseStart):                    "Transfer starting",
	string(PhaseQueued):                   "Waiting in queue",
	string(PhaseCleanintyInit):            "Initializing cleaninty session",
	string(PhaseSerialCheckAttempt):       "Checking serial number",
	string(PhaseEshopRegionChangeAttempt): "Changing eShop region",
	string(PhaseEshopRegionChangeSuccess): "eShop region changed",
	string(PhaseEshopDeleteSuccess):       "Old eShop account removed",
	string(PhaseSystemTransferAttempt):    "Performing system transfer",
	string(PhaseSystemTransferSuccess):    "System transfer complete",
	string(PhaseSuccess):                  "Transfer complete",
	string(PhaseLottery):                  "Transfer complete, no system transfer needed",
}
