package analysis

import (
	"strconv"
	"strings"
)

// Info is the part of a UCI "info" line the session cares about.
type Info struct {
	Depth   int
	MultiPV int
	Score   Score
	PV      []string
}

// ParseInfo recognises "info ... depth N ... score cp|mate N ..." lines.
// Lines without a depth or a score, and secondary multipv lines, are not
// recognised; callers ignore them.
func ParseInfo(line string) (Info, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Info{}, false
	}

	info := Info{Depth: -1, MultiPV: 1}
	hasScore := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			return Info{}, false
		case "depth":
			if n, ok := intAt(fields, i+1); ok {
				info.Depth = n
				i++
			}
		case "multipv":
			if n, ok := intAt(fields, i+1); ok {
				info.MultiPV = n
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				return Info{}, false
			}
			n, ok := intAt(fields, i+2)
			if !ok {
				return Info{}, false
			}
			switch fields[i+1] {
			case "cp":
				info.Score = Centipawns(n)
			case "mate":
				info.Score = MateIn(n)
			default:
				return Info{}, false
			}
			hasScore = true
			i += 2
		case "pv":
			info.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}

	if !hasScore || info.Depth < 0 || info.MultiPV != 1 {
		return Info{}, false
	}
	return info, true
}

// ParseBestMove recognises "bestmove <move> [ponder <move>]".
func ParseBestMove(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "bestmove" {
		return "", false
	}
	if len(fields) > 1 {
		return fields[1], true
	}
	return "", true
}

func intAt(fields []string, i int) (int, bool) {
	if i >= len(fields) {
		return 0, false
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, false
	}
	return n, true
}
