package utils

import (
	"fmt"
	"log"

	"github.com/skip2/go-qrcode"
)

// GenerateReferralLink builds the registration link a driver shares to
// recruit a downline. baseURL is the public registration page, e.g.
// "https://frota360.pt/registo".
func GenerateReferralLink(baseURL string, driverID int64) (string, error) {
	if baseURL == "" {
		log.Println("GenerateReferralLink: baseURL not configured.")
		return "", fmt.Errorf("referral base URL is not configured")
	}
	if driverID <= 0 {
		log.Printf("GenerateReferralLink: invalid driver id: %d", driverID)
		return "", fmt.Errorf("invalid driver id for referral link")
	}
	return fmt.Sprintf("%s?ref=%d", baseURL, driverID), nil
}

// GenerateReferralQRCode renders the driver's referral link as a PNG QR code.
func GenerateReferralQRCode(baseURL string, driverID int64) ([]byte, error) {
	link, err := GenerateReferralLink(baseURL, driverID)
	if err != nil {
		log.Printf("GenerateReferralQRCode: failed to build referral link (driver %d): %v", driverID, err)
		return nil, err
	}

	qrBytes, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		log.Printf("GenerateReferralQRCode: failed to encode QR for link '%s': %v", link, err)
		return nil, err
	}
	return qrBytes, nil
}
