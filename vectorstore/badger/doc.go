// Package badger implements vectorstore.Index on top of BadgerDB.
//
// Vectors are mus-encoded under keys of the form vec:namespace:id and
// provisioned index specs under idx:name. Queries scan the namespace and
// rank records by cosine similarity, which is adequate for the few
// thousand chunks of the working dataset.
package badger
