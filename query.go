package agentsdk

import (
	"context"
	"iter"
)

// Query starts a single-turn session, sends prompt, and returns a lazy
// iterator over the resulting Agent Messages. Iteration stops after the
// terminal Result message (or the first error) and the underlying session
// is closed automatically once the iterator is exhausted or abandoned.
func Query(ctx context.Context, prompt string, opts Options) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		ctx = ctxOrBackground(ctx)

		session, err := Connect(ctx, opts)
		if err != nil {
			yield(nil, err)
			return
		}
		defer session.Close()

		if err := session.Send(ctx, prompt); err != nil {
			yield(nil, err)
			return
		}

		for {
			msg, err := session.Receive(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(msg, nil) {
				return
			}
			if _, isResult := msg.(ResultMessage); isResult {
				return
			}
		}
	}
}
