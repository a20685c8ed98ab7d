package services

import "time"

var HashToken = hashToken

func SetAuthClock(svc *AuthService, now func() time.Time) {
	svc.now = now
}
