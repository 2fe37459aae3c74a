/*
Package orm stores typed models in a key value store.

A ModelBucket owns the keys under its "<name>:" prefix and holds a single
model type. Models encode themselves with Encoder and Decoder, a field
codec on top of the gogo protobuf varint primitives.
*/
package orm
