package vsnap

import (
	"strconv"
	"strings"
)

// Query is a parsed restore request. FileName is matched as a suffix of the
// original file name, not exactly.
type Query struct {
	FileName string
	Time     TimeSpec
}

// queryGrammar is one accepted shape of restore arguments.
type queryGrammar struct {
	name  string
	parse func(args []string) (*Query, bool)
}

// queryGrammars are tried in order; the first that accepts the arguments wins.
// A date must come before an hour or minute can be recognized.
var queryGrammars = []queryGrammar{
	{name: "date hour.minute file", parse: parseDateMinuteFile},
	{name: "date hour file", parse: parseDateHourFile},
	{name: "date file", parse: parseDateFile},
	{name: "file", parse: parseFileOnly},
}

// ParseQuery interprets restore arguments:
//
//	[<day>.<month>.<year> [<hour>[.<minute>]]] <file>
//
// A single argument is always the file name. ok is false only when args is
// empty.
func ParseQuery(args []string) (*Query, bool) {
	if len(args) == 0 {
		return nil, false
	}
	if len(args) == 1 {
		return &Query{FileName: args[0], Time: AnyTime()}, true
	}
	for _, g := range queryGrammars {
		if q, ok := g.parse(args); ok {
			return q, true
		}
	}
	return nil, false
}

func parseDateMinuteFile(args []string) (*Query, bool) {
	if len(args) < 3 {
		return nil, false
	}
	date, ok := parseInts(args[0], 3)
	if !ok {
		return nil, false
	}
	hm, ok := parseInts(args[1], 2)
	if !ok {
		return nil, false
	}
	return &Query{
		FileName: args[2],
		Time:     AtMinute(date[0], date[1], date[2], hm[0], hm[1]),
	}, true
}

func parseDateHourFile(args []string) (*Query, bool) {
	if len(args) < 3 {
		return nil, false
	}
	date, ok := parseInts(args[0], 3)
	if !ok {
		return nil, false
	}
	hour, ok := parseInts(args[1], 1)
	if !ok {
		return nil, false
	}
	return &Query{
		FileName: args[2],
		Time:     AtHour(date[0], date[1], date[2], hour[0]),
	}, true
}

// parseDateFile consumes the second argument as the file name even when it
// looks like a time; anything after it is ignored.
func parseDateFile(args []string) (*Query, bool) {
	if len(args) < 2 {
		return nil, false
	}
	date, ok := parseInts(args[0], 3)
	if !ok {
		return nil, false
	}
	return &Query{
		FileName: args[1],
		Time:     OnDate(date[0], date[1], date[2]),
	}, true
}

func parseFileOnly(args []string) (*Query, bool) {
	return &Query{FileName: args[0], Time: AnyTime()}, true
}

// parseInts splits token on '.' and requires exactly count pieces, each a
// signed decimal integer.
func parseInts(token string, count int) ([]int, bool) {
	pieces := strings.Split(token, ".")
	if len(pieces) != count {
		return nil, false
	}
	out := make([]int, count)
	for i, p := range pieces {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
