/*
Package convoflow is a declarative conversation flow engine. It interprets a
versioned, graph-shaped script (a flow definition: messages, multiple-choice
branches, side-effecting actions) and drives a single conversation through
that graph one user input at a time.

The core is a pure library: it receives a flow definition and a state
snapshot as plain values and returns a new snapshot plus the bot's reply. It
performs no I/O of its own; persistence, messaging transport and AI
providers plug in through the interfaces in pkg/ports.

# Usage

	eng, err := convoflow.New(definitionJSON)
	if err != nil {
		log.Fatal(err) // authoring error: the flow is invalid
	}

	// First turn: empty input, start of the flow.
	result, err := eng.ProcessMessage(ctx, "", "", nil)

	// Later turns: pass the user's message and the step id returned by
	// the previous turn.
	result, err = eng.ProcessMessage(ctx, "sim", *result.NextStepID, result.Variables)

For durable conversations use pkg/session.Manager, which persists state in a
ports.StateStore around each turn and serializes concurrent messages for the
same conversation.
*/
package convoflow
