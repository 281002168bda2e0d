// Package deploy serves static deployment walkthroughs. Nothing here talks
// to a hosting provider; the instructions are copy text for the dashboard.
package deploy

import "errors"

// ErrUnknownPlatform indicates a platform with no instructions on record.
var ErrUnknownPlatform = errors.New("unknown deployment platform")

// Instructions holds the walkthrough for one hosting platform.
type Instructions struct {
	Platform string   `json:"platform"`
	Steps    []string `json:"steps"`
	Notes    string   `json:"notes,omitempty"`
}

var platforms = map[string]Instructions{
	"vercel": {
		Platform: "vercel",
		Steps: []string{
			"Download your project as a ZIP and extract it locally.",
			"Install the Vercel CLI: npm install -g vercel",
			"Run `vercel` inside the project directory and follow the prompts.",
			"Run `vercel --prod` to promote the deployment to production.",
		},
		Notes: "Vercel auto-detects most Node.js frameworks. Set environment variables in the project settings before promoting.",
	},
	"render": {
		Platform: "render",
		Steps: []string{
			"Push your extracted project to a GitHub repository.",
			"Create a new Web Service on render.com and connect the repository.",
			"Set the build command (e.g. `npm install`) and start command (e.g. `node main.js`).",
			"Add environment variables under the Environment tab, then deploy.",
		},
		Notes: "Render's free tier spins services down after idle periods; the first request after that is slow.",
	},
	"railway": {
		Platform: "railway",
		Steps: []string{
			"Push your extracted project to a GitHub repository.",
			"Create a new project on railway.app and select Deploy from GitHub repo.",
			"Railway detects the runtime from your files; override the start command if needed.",
			"Add variables under the service's Variables tab and generate a public domain.",
		},
		Notes: "Railway assigns the listening port via the PORT environment variable; make sure your server reads it.",
	},
}

// For returns the deployment walkthrough for a platform.
func For(platform string) (Instructions, error) {
	ins, ok := platforms[platform]
	if !ok {
		return Instructions{}, ErrUnknownPlatform
	}
	return ins, nil
}

// Platforms lists the supported platform identifiers.
func Platforms() []string {
	return []string{"vercel", "render", "railway"}
}
