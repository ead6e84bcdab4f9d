package fabric

// Close releases the mmap'd warp arrays and any open feature/edge files
// held by this Fabric's store. A Fabric must not be used after Close.
func (f *Fabric) Close() error {
	if f == nil {
		return nil
	}
	return f.store.Close()
}
