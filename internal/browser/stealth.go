package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// evasions patches the fingerprints go-rod/stealth leaves alone.
const evasions = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });
	try { delete Object.getPrototypeOf(navigator).webdriver; } catch (e) {}

	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 8 });
	Object.defineProperty(navigator, 'deviceMemory', { get: () => 8 });

	if (!window.chrome) { window.chrome = {}; }
	if (!window.chrome.runtime) { window.chrome.runtime = { connect: () => {}, sendMessage: () => {} }; }

	const query = window.navigator.permissions && window.navigator.permissions.query;
	if (query) {
		window.navigator.permissions.query = (p) =>
			p && p.name === 'notifications'
				? Promise.resolve({ state: Notification.permission })
				: query.call(window.navigator.permissions, p);
	}

	const getParameter = WebGLRenderingContext.prototype.getParameter;
	WebGLRenderingContext.prototype.getParameter = function (param) {
		if (param === 37445) return 'Intel Inc.';
		if (param === 37446) return 'Intel Iris OpenGL Engine';
		return getParameter.call(this, param);
	};
})();`

func newStealthPage(b *rod.Browser) (*rod.Page, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, err
	}
	if _, err := page.EvalOnNewDocument(evasions); err != nil {
		_ = page.Close()
		return nil, err
	}
	return page, nil
}
