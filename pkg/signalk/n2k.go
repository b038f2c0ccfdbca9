package signalk

const (
	PGNPositionRapid = 129025
	PGNCOGSOGRapid   = 129026

	// N2KBroadcast is the destination address reaching every device.
	N2KBroadcast = 255
	// N2KDefaultPriority is the priority used for rapid navigation updates.
	N2KDefaultPriority = 2
)

// PGNMessage is an NMEA 2000 message in canboat JSON form.
type PGNMessage struct {
	PGN    int            `json:"pgn"`
	Src    int            `json:"src"`
	Dst    int            `json:"dst"`
	Prio   int            `json:"prio"`
	Fields map[string]any `json:"fields"`
}

// NewPGNMessage addresses a broadcast message from src.
func NewPGNMessage(pgn, src int, fields map[string]any) PGNMessage {
	return PGNMessage{
		PGN:    pgn,
		Src:    src,
		Dst:    N2KBroadcast,
		Prio:   N2KDefaultPriority,
		Fields: fields,
	}
}
