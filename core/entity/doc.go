// Package entity defines the contract between the engines and the entity collaborator.
//
// The collaborator is anything that can answer "get_<type>" and "update_<type>"
// operations with a Response envelope:
//
//	{"content": [{"type": "text", "text": "<JSON string>"}]}
//
// The envelope shape is fixed. The JSON inside the text block carries either a list
// under "data", an entity object directly, or an entity nested under a key named
// after the entity type ("feature" for "features"). The Decode helpers read all of
// these shapes and treat anything they cannot parse as absent.
//
// # Errors
//
// Collaborators classify their failures with Error and an ErrorKind. Engines branch
// on KindOf rather than on message text: KindNotFound routes a bulk item to skipped,
// KindValidation becomes a 400 at the HTTP surface, and so on.
//
// # Usage
//
//	resp, err := h.Handle(ctx, entity.GetOp("features"), map[string]any{"id": "f-1"})
//	if entity.KindOf(err) == entity.KindNotFound {
//	    // skip
//	}
//	feature := entity.DecodeEntity(resp, "features")
package entity
