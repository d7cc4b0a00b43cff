package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Minimum skill rank needed to queue on each map, indexed by map number.
var entryRanks = [mapCount + 1]float64{
	0,
	0,   // Newbieland
	0.1, // Buto
	3,   // Pyramids
	10,  // Robocity
	20,  // Assembly
	50,  // Infernal Hop
	150, // Going Down
	300, // Slip
}

// player is the profile a client declares for its connection, plus the
// server-side pointers tracking where that player currently is.
type player struct {
	Name     string `validate:"required"`
	Rank     float64
	Head     int `validate:"min=1,max=11"`
	Body     int `validate:"min=1,max=11"`
	Foot     int `validate:"min=1,max=11"`
	Speed    int `validate:"min=0,max=100"`
	Jump     int `validate:"min=0,max=100"`
	Traction int `validate:"min=0,max=100"`

	roomID   int // 1-based race pool id, 0 = in the lobby
	raceMap  int // map queued or raced on, 0 = none
	raceSlot int // lobby slot held while queued, 0 = none
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(player)
		for _, banned := range []string{sep, "<", "&#0;"} {
			if strings.Contains(p.Name, banned) {
				sl.ReportError(p.Name, "Name", "Name", "excludes", banned)
			}
		}
		if p.Speed+p.Jump+p.Traction > 150 {
			sl.ReportError(p.Speed, "Speed", "Speed", "attrsum", "")
		}
	}, player{})
	return v
}

// parsePlayer validates an identity message of the form
// n<name>`<rank>`<head>`<body>`<foot>`<speed>`<jump>`<traction>.
// The name may itself contain backticks, so the seven numeric fields are
// split off from the end of the message and whatever remains after the tag
// byte is taken verbatim as the name.
func parsePlayer(msg string) (player, error) {
	rest := msg[1:]
	var fields [7]string
	for i := len(fields) - 1; i >= 0; i-- {
		j := strings.LastIndex(rest, sep)
		if j < 0 {
			return player{}, fmt.Errorf("profile has too few fields: %q", msg)
		}
		fields[i] = rest[j+1:]
		rest = rest[:j]
	}

	p := player{
		Name:     rest,
		Rank:     parseFloat(fields[0]),
		Head:     parseInt(fields[1]),
		Body:     parseInt(fields[2]),
		Foot:     parseInt(fields[3]),
		Speed:    parseInt(fields[4]),
		Jump:     parseInt(fields[5]),
		Traction: parseInt(fields[6]),
	}
	if err := validate.Struct(p); err != nil {
		return player{}, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

// Garbled numbers count as zero; the range rules then judge the zero.
func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func formatRank(r float64) string {
	return strconv.FormatFloat(r, 'g', -1, 64)
}

// profileLine renders the profile broadcast for this player.
func (p *player) profileLine(connID uint32) string {
	return strings.Join([]string{
		"p" + strconv.FormatUint(uint64(connID), 10),
		p.Name,
		formatRank(p.Rank),
		strconv.Itoa(p.Head),
		strconv.Itoa(p.Body),
		strconv.Itoa(p.Foot),
		strconv.Itoa(p.Speed),
		strconv.Itoa(p.Jump),
		strconv.Itoa(p.Traction),
	}, sep)
}

// queued reports whether the player is waiting in a lobby slot rather than
// racing or idling.
func (p *player) queued() bool {
	return p.roomID == 0 && p.raceMap != 0 && p.raceSlot != 0
}
