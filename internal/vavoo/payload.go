package vavoo

// App identity constants lifted from the Vavoo Android client 3.0.2. The
// ping endpoint validates these against known builds; a payload that does
// not look like the shipped app gets no addonSig back.
const (
	appToken     = "8Us2TfjeOFrzqFFTEjL3E5KfdAWGa5PV3wQe60uK4BmzlkJRMYFu0ufaM_eeDXKS2U04XUuhbDTgGRJrJARUwzDyCcRToXhW5AcDekfFMfwNUjuieeQ1uzeDB9YWyBL2cn5Al3L3gTnF8Vk1t7rPwkBob0swvxA"
	appPackage   = "tv.vavoo.app"
	appBinary    = "3.0.2"
	appJS        = "3.1.4"
	appBuildID   = "288045000"
	appSignature = "09f4e07040149486e541a1cb34000b6e12527265252fa2178dfe2bd1af6b815a"
	appStartMS   = 1728674705639
)

type pingPayload struct {
	Token          string       `json:"token"`
	Reason         string       `json:"reason"`
	Locale         string       `json:"locale"`
	Theme          string       `json:"theme"`
	Metadata       pingMetadata `json:"metadata"`
	AppFocusTime   int          `json:"appFocusTime"`
	PlayerActive   bool         `json:"playerActive"`
	PlayDuration   int          `json:"playDuration"`
	DevMode        bool         `json:"devMode"`
	HasAddon       bool         `json:"hasAddon"`
	CastConnected  bool         `json:"castConnected"`
	Package        string       `json:"package"`
	Version        string       `json:"version"`
	Process        string       `json:"process"`
	FirstAppStart  int64        `json:"firstAppStart"`
	LastAppStart   int64        `json:"lastAppStart"`
	IPLocation     string       `json:"ipLocation"`
	AdblockEnabled bool         `json:"adblockEnabled"`
	Proxy          pingProxy    `json:"proxy"`
	IAP            pingIAP      `json:"iap"`
}

type pingMetadata struct {
	Device  pingDevice  `json:"device"`
	OS      pingOS      `json:"os"`
	App     pingApp     `json:"app"`
	Version pingVersion `json:"version"`
}

type pingDevice struct {
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Name     string `json:"name"`
	UniqueID string `json:"uniqueId"`
}

type pingOS struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	ABIs    []string `json:"abis"`
	Host    string   `json:"host"`
}

type pingApp struct {
	Platform   string   `json:"platform"`
	Version    string   `json:"version"`
	BuildID    string   `json:"buildId"`
	Engine     string   `json:"engine"`
	Signatures []string `json:"signatures"`
	Installer  string   `json:"installer"`
}

type pingVersion struct {
	Package string `json:"package"`
	Binary  string `json:"binary"`
	JS      string `json:"js"`
}

type pingProxy struct {
	Supported  []string `json:"supported"`
	Engine     string   `json:"engine"`
	Enabled    bool     `json:"enabled"`
	AutoServer bool     `json:"autoServer"`
	ID         string   `json:"id"`
}

type pingIAP struct {
	Supported bool `json:"supported"`
}

// newPingPayload builds the full device payload. deviceID is the only
// per-deployment value; everything else mirrors the reference client.
func newPingPayload(deviceID string) pingPayload {
	return pingPayload{
		Token:  appToken,
		Reason: "player.enter",
		Locale: "de",
		Theme:  "dark",
		Metadata: pingMetadata{
			Device: pingDevice{
				Type:     "Handset",
				Brand:    "google",
				Model:    "Nexus 5",
				Name:     "21081111RG",
				UniqueID: deviceID,
			},
			OS: pingOS{
				Name:    "android",
				Version: "7.1.2",
				ABIs:    []string{"arm64-v8a", "armeabi-v7a", "armeabi"},
				Host:    "android",
			},
			App: pingApp{
				Platform:   "android",
				Version:    appBinary,
				BuildID:    appBuildID,
				Engine:     "jsc",
				Signatures: []string{appSignature},
				Installer:  "com.android.secex",
			},
			Version: pingVersion{
				Package: appPackage,
				Binary:  appBinary,
				JS:      appJS,
			},
		},
		AppFocusTime:   27229,
		PlayerActive:   true,
		PlayDuration:   0,
		DevMode:        false,
		HasAddon:       true,
		CastConnected:  false,
		Package:        appPackage,
		Version:        appJS,
		Process:        "app",
		FirstAppStart:  appStartMS,
		LastAppStart:   appStartMS,
		IPLocation:     "",
		AdblockEnabled: true,
		Proxy: pingProxy{
			Supported:  []string{"ss"},
			Engine:     "ss",
			Enabled:    false,
			AutoServer: true,
			ID:         "ca-bhs",
		},
		IAP: pingIAP{Supported: false},
	}
}
