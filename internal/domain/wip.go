package domain

// CheckWipLimit is the per-user WIP gate. A nil limit means unlimited;
// otherwise the user is within limit only while current is strictly below it.
//
// The gate is evaluated at assignment time only. Users already above a limit
// that was lowered afterwards keep their assignments but receive no new ones.
func CheckWipLimit(current int, limit *int) error {
	if limit == nil || current < *limit {
		return nil
	}
	return ErrWipLimitExceeded
}
