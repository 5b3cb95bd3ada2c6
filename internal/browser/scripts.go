package browser

import (
	"fmt"

	"github.com/landingscout/landingscout/internal/scout"
)

// linksScript reads every anchor's raw destination; resolution and
// filtering happen on the Go side.
const linksScript = `Array.from(document.querySelectorAll('a[href]')).map(a => a.getAttribute('href'))`

// autoScrollScript steps the viewport down the page to trigger
// lazy-loaded content, stopping at the document height or the scroll cap,
// whichever comes first.
func autoScrollScript(profile scout.ScrollProfile) string {
	return fmt.Sprintf(`new Promise((resolve) => {
	let totalHeight = 0;
	let scrolls = 0;
	const timer = setInterval(() => {
		const scrollHeight = document.body.scrollHeight;
		window.scrollBy(0, %d);
		totalHeight += %d;
		scrolls += 1;
		if (totalHeight >= scrollHeight || scrolls >= %d) {
			clearInterval(timer);
			resolve();
		}
	}, %d);
})`, profile.Step, profile.Step, profile.MaxScrolls, profile.Delay.Milliseconds())
}
