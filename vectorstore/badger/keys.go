package badger

// Key prefixes for different data types
const (
	vectorPrefix    = "vec"
	indexSpecPrefix = "idx"
)

// makeVectorKey generates a key for a vector by namespace and ID.
// Format: vec:namespace:id
func makeVectorKey(namespace, id string) []byte {
	return []byte(vectorPrefix + ":" + namespace + ":" + id)
}

// makeNamespacePrefix generates the scan prefix covering one namespace.
// Format: vec:namespace:
func makeNamespacePrefix(namespace string) []byte {
	return []byte(vectorPrefix + ":" + namespace + ":")
}

// makeIndexSpecKey generates a key for a stored index spec.
// Format: idx:name
func makeIndexSpecKey(name string) []byte {
	return []byte(indexSpecPrefix + ":" + name)
}

// makeIndexSpecPrefix generates the scan prefix covering all index specs.
func makeIndexSpecPrefix() []byte {
	return []byte(indexSpecPrefix + ":")
}
