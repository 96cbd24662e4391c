package application

func (f *SpokenFormatter) CachedPrinters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.printers)
}
