package auth

// CheckOwnership compares a resource owner against the acting identity.
// Pure comparison, no I/O; callers run it after loading the resource
// and before any mutation.
func CheckOwnership(ownerID, actorID uint) error {
	if ownerID != actorID {
		return ErrNotOwner
	}
	return nil
}
