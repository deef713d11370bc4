package proof

import "fmt"

// DefaultPreamble is the instructional preamble sent on the first round. The
// surrounding newlines are part of the prompt text.
const DefaultPreamble = "\nWe're going to play a game. I'll give you a prompt, and you have to write a Coq proof that satisfies the prompt. In your answers, write only one Coq code snippet delineated by triple backticks ```. I'll check your proof and let you know if it's correct. If you need help, just ask!\n"

// PromptBuilder assembles the prompt for each round. The preamble is sent on
// the first round only; later rounds restate the task, since every request is
// an independent single-turn exchange with no conversation memory.
type PromptBuilder struct {
	Preamble string
	Task     string
}

// Build produces the prompt for one round. first marks round one; prior
// carries the previous round's diagnostic, if any.
func (b PromptBuilder) Build(first bool, prior PriorError) string {
	if first {
		if prior.Kind != ErrorNone {
			return fmt.Sprintf("%s\n%s\n%s\n", b.Preamble, b.Task, renderError(prior))
		}
		return fmt.Sprintf("%s\n%s\n", b.Preamble, b.Task)
	}
	if prior.Kind != ErrorNone {
		return fmt.Sprintf("Reminder that our task is to: %s\n%s\n", b.Task, renderError(prior))
	}
	return fmt.Sprintf("%s\n", b.Task)
}

// renderError turns a carried-forward error into prompt text. Raw diagnostics
// are parsed first; when the pattern does not match, the raw text is included
// verbatim instead so the model still sees the checker's output.
func renderError(prior PriorError) string {
	switch prior.Kind {
	case ErrorRaw:
		parsed, ok := ParseDiagnostic(prior.Raw)
		if !ok {
			return prior.Raw
		}
		return renderParsed(parsed)
	case ErrorStructured:
		return renderParsed(prior.Parsed)
	default:
		return ""
	}
}

func renderParsed(parsed ParsedError) string {
	return fmt.Sprintf("We had an error on line %s at characters %s. The error type was \"%s\"",
		parsed.Line, parsed.Characters, parsed.Message)
}
