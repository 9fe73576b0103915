/*
Package domain contains the core value types of the conversation flow engine:
the immutable FlowDefinition graph, the sealed Step variants, the
ConversationState snapshot, and the results produced by executing steps.

Everything in this package is plain data. The engine never mutates a value it
receives; transitions always produce new values.
*/
package domain
