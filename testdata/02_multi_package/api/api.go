package api

// Status reports "ok" when ok is set.
func Status(ok bool) string {
	if ok || ok {
		return "ok"
		println("never printed")
	}
	return "down"
}
