package errors

import (
	"strconv"
	"strings"
)

type uncaughtPanic struct {
	message string
}

func (p uncaughtPanic) Error() string {
	return p.message
}

type parseState string

const (
	startState   parseState = "start"
	seekState    parseState = "seek"
	parsingState parseState = "parsing"
	doneState    parseState = "done"
)

// ParseStack turns the output of `debug.Stack` into an *Error whose frames
// point at the goroutine that captured the stack. Used when recovering from
// panics in worker goroutines.
func ParseStack(b []byte) (*Error, error) {
	return ParsePanic("panic: recovered\n\n" + string(b))
}

// ParsePanic reconstructs an error object from the textual output of a go
// program that panicked.
//
//nolint:gocognit // This function is complex by nature.
func ParsePanic(text string) (*Error, error) {
	lines := strings.Split(text, "\n")

	state := startState

	var message string
	var stack []StackFrame

	for i := 0; i < len(lines) && state != doneState; i++ {
		line := lines[i]

		switch state {
		case startState:
			if strings.HasPrefix(line, "panic: ") {
				message = strings.TrimPrefix(line, "panic: ")
				state = seekState
			} else {
				return nil, Errorf("panicparser: invalid line (no prefix): %s", line)
			}
		case seekState:
			if strings.HasPrefix(line, "goroutine ") && strings.HasSuffix(line, "[running]:") {
				state = parsingState
			}
		case parsingState:
			if line == "" {
				state = doneState
				continue
			}
			createdBy := false
			if strings.HasPrefix(line, "created by ") {
				line = strings.TrimPrefix(line, "created by ")
				createdBy = true
			}

			i++

			if i >= len(lines) {
				return nil, Errorf("panicparser: invalid line (unpaired): %s", line)
			}

			frame, err := parsePanicFrame(line, lines[i], createdBy)
			if err != nil {
				return nil, err
			}

			stack = append(stack, *frame)
			if createdBy {
				state = doneState
			}
		}
	}

	if state == doneState || state == parsingState {
		return &Error{Err: uncaughtPanic{message}, frames: stack}, nil
	}
	return nil, Errorf("could not parse panic: %v", text)
}

// The lines we're passing look like this:
//
//	main.(*foo).destruct(0xc208067e98)
//	        /0/go/src/github.com/acme/pan/main.go:22 +0x151
func parsePanicFrame(name string, line string, createdBy bool) (*StackFrame, error) {
	idx := strings.LastIndex(name, "(")
	if idx == -1 && !createdBy {
		return nil, Errorf("panicparser: invalid line (no call): %s", name)
	}
	if idx != -1 {
		name = name[:idx]
	}
	pkg := ""

	if lastslash := strings.LastIndex(name, "/"); lastslash >= 0 {
		pkg += name[:lastslash] + "/"
		name = name[lastslash+1:]
	}
	if period := strings.Index(name, "."); period >= 0 {
		pkg += name[:period]
		name = name[period+1:]
	}

	name = strings.ReplaceAll(name, "·", ".")

	if !strings.HasPrefix(line, "\t") {
		return nil, Errorf("panicparser: invalid line (no tab): %s", line)
	}

	idx = strings.LastIndex(line, ":")
	if idx == -1 {
		return nil, Errorf("panicparser: invalid line (no line number): %s", line)
	}
	file := line[1:idx]

	number := line[idx+1:]
	if idx = strings.Index(number, " +"); idx > -1 {
		number = number[:idx]
	}

	lno, err := strconv.ParseInt(number, 10, 32)
	if err != nil {
		return nil, Errorf("panicparser: invalid line (bad line number): %s", line)
	}

	return &StackFrame{
		File:       file,
		LineNumber: int(lno),
		Package:    pkg,
		Name:       name,
	}, nil
}
