// Package gitter is a client for the Gitter REST and streaming APIs.
//
// [NewClient] validates a personal access token by fetching the current
// user and returns a [Client] bound to that user. The client covers user,
// room, channel and repo lookups, joining and leaving rooms, and sending
// messages; rooms are addressed by name and resolved to ids on every call.
//
// Two operations deal with message retrieval. [Client.RoomStream] opens a
// room's live stream and hands the open connection to the caller.
// [Client.MessageCursor] returns a [Cursor] that pages backward through a
// room's history, pausing between pages to stay under the service's rate
// limits.
//
// The [Transport] underneath never fails loudly: an empty body, invalid
// JSON, a non-2xx status and a failed round trip all produce an empty
// [Result]. The facade reports these as errors wrapping [ErrNoData], with
// the original cause (an [*APIError], [ErrTimeout], a JSON syntax error)
// available through errors.Is and errors.As.
package gitter
