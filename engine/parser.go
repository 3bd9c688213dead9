package engine

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Parser errors are fatal at load time: the program text does not decode to
// a valid instruction stream.
var (
	ErrUnknownIMP       = fmt.Errorf("unknown IMP prefix")
	ErrUnknownOp        = fmt.Errorf("unknown op")
	ErrUnknownParameter = fmt.Errorf("unknown parameter")
	ErrParameterDecode  = fmt.Errorf("unable to decode parameter")
)

// paramPattern matches a run of spaces/tabs terminated by a newline, with the
// run itself captured.
var paramPattern = regexp.MustCompile(`^([\t ]+)\n`)

func compileAltPattern(patterns []string) *regexp.Regexp {
	escaped := make([]string, len(patterns))
	for i, p := range patterns {
		escaped[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^(" + strings.Join(escaped, "|") + ")")
}

var impAltPattern = compileAltPattern(impPatterns())

func impPatterns() []string {
	patterns := make([]string, len(impSpecs))
	for i, s := range impSpecs {
		patterns[i] = s.pattern
	}
	return patterns
}

func matchIMP(code string) (IMP, int, error) {
	match := impAltPattern.FindString(code)
	if match == "" {
		return 0, 0, ErrUnknownIMP
	}
	for _, s := range impSpecs {
		if s.pattern == match {
			return s.imp, len(match), nil
		}
	}
	return 0, 0, ErrUnknownIMP
}

func matchOp(imp IMP, code string) (opSpec, int, error) {
	specs := opsForIMP(imp)
	patterns := make([]string, len(specs))
	for i, s := range specs {
		patterns[i] = s.pattern
	}
	alt := compileAltPattern(patterns)
	match := alt.FindString(code)
	if match == "" {
		return opSpec{}, 0, ErrUnknownOp
	}
	for _, s := range specs {
		if s.pattern == match {
			return s, len(match), nil
		}
	}
	return opSpec{}, 0, ErrUnknownOp
}

// decodeParameter reads the bit run for a NUMBER or LABEL parameter starting
// at code[0:]. Space bits are 0, tab bits are 1. For NUMBER, the first bit is
// the sign and an empty magnitude means zero. For LABEL, the whole bit string
// is a non-negative integer id.
func decodeParameter(kind ParamKind, code string) (int, int, error) {
	match := paramPattern.FindStringSubmatch(code)
	if match == nil {
		return 0, 0, ErrUnknownParameter
	}
	bits := match[1]
	size := len(match[0])

	bitstring := make([]byte, 0, len(bits))
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case ' ':
			bitstring = append(bitstring, '0')
		case '\t':
			bitstring = append(bitstring, '1')
		default:
			return 0, 0, ErrParameterDecode
		}
	}

	switch kind {
	case ParamNumber:
		if len(bitstring) == 1 {
			return 0, size, nil
		}
		value := parseBinary(bitstring[1:])
		if bitstring[0] == '1' {
			value = -value
		}
		return value, size, nil
	case ParamLabel:
		return parseBinary(bitstring), size, nil
	default:
		return 0, 0, ErrParameterDecode
	}
}

func parseBinary(bits []byte) int {
	value := 0
	for _, b := range bits {
		value <<= 1
		if b == '1' {
			value |= 1
		}
	}
	return value
}

// ParseCode parses a Whitespace source string into its instruction list.
// Every character outside {space, tab, newline} is discarded before parsing.
func ParseCode(code string) ([]Instruction, error) {
	var filtered strings.Builder
	for _, c := range code {
		if c == ' ' || c == '\t' || c == '\n' {
			filtered.WriteRune(c)
		}
	}
	src := filtered.String()

	var instructions []Instruction
	i := 0
	for i < len(src) {
		imp, size, err := matchIMP(src[i:])
		if err != nil {
			return nil, err
		}
		i += size

		spec, size, err := matchOp(imp, src[i:])
		if err != nil {
			return nil, err
		}
		i += size

		ins := Instruction{IMP: imp, Op: spec.op}
		if spec.param != ParamNone {
			value, size, err := decodeParameter(spec.param, src[i:])
			if err != nil {
				return nil, err
			}
			i += size
			ins.Parameter = value
			ins.HasParameter = true
		}

		instructions = append(instructions, ins)
	}

	return instructions, nil
}

// ParseFile reads and parses the Whitespace program at path.
func ParseFile(path string) ([]Instruction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseCode(string(data))
}
