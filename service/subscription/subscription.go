package subscription

type WebPushSubscription struct {
	Endpoint string `json:"endpoint" db:"endpoint"`
	P256dh   string `json:"p256dh" db:"p256dh"`
	Auth     string `json:"auth" db:"auth"`
}

type Subscription struct {
	ID         string `json:"id" db:"id"`
	DeviceName string `json:"deviceName,omitempty" db:"device_name"`
	WebPushSubscription
}
