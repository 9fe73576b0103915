/*
Package ports defines the boundary interfaces of the engine.

The core performs no I/O of its own: flows arrive as blobs, conversation
state is loaded and saved around each turn by the caller, and action side
effects go through the collaborator interfaces declared here. Hosts plug in
implementations (database, AI provider, CRM) without the core knowing.
*/
package ports
