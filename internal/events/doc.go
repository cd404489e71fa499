// Package events provides the board event types and the emitter that fans
// them out to handlers.
//
// Services emit a BoardEvent after a unit of work commits; handlers such as
// the websocket hub push them to connected clients. Emitters and handlers know
// nothing about each other beyond the interfaces here.
package events
