package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEventLine_TicketsIssued(t *testing.T) {
	body, err := json.Marshal(TicketsIssuedEvent{
		OrderCode:   "TKT-2026-ABCDEFGH",
		UserID:      7,
		SessionID:   3,
		EventName:   "Jazz Night",
		SessionName: "Evening",
		TotalCents:  302500,
		VerifiedAt:  "2026-03-01T10:00:00Z",
		Tickets: []IssuedTicket{
			{TicketCode: "QR-1", SeatCode: "V1"},
			{TicketCode: "QR-2", SeatCode: "V2"},
		},
	})
	require.NoError(t, err)

	line, err := FormatEventLine(TicketsIssuedQueue, body)
	require.NoError(t, err)
	assert.Equal(t,
		`[2026-03-01T10:00:00Z] Tickets issued | order=TKT-2026-ABCDEFGH | user_id=7 | session_id=3 | event="Jazz Night" | session="Evening" | total=302500 cents | tickets=[V1=QR-1,V2=QR-2]`+"\n",
		line)
}

func TestFormatEventLine_OrderReleased(t *testing.T) {
	body, err := json.Marshal(OrderReleasedEvent{
		OrderCode: "TKT-2026-ABCDEFGH", UserID: 7, SessionID: 3,
		Status: "expired", SeatsFreed: 2, ReleasedAt: "2026-03-01T10:15:00Z",
	})
	require.NoError(t, err)

	line, err := FormatEventLine(OrderReleasedQueue, body)
	require.NoError(t, err)
	assert.Contains(t, line, "Order released | order=TKT-2026-ABCDEFGH")
	assert.Contains(t, line, "status=expired | seats_freed=2")
}

func TestFormatEventLine_Errors(t *testing.T) {
	_, err := FormatEventLine("unknown", []byte(`{}`))
	assert.Error(t, err)
	_, err = FormatEventLine(TicketsIssuedQueue, []byte(`{`))
	assert.Error(t, err)
}

func TestAppendLine(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, appendLine(dir, "one\n"))
	require.NoError(t, appendLine(dir, "two\n"))

	got, err := os.ReadFile(filepath.Join(dir, "tickets.log"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(got))
}
