package form

import (
	"encoding/json"
	"fmt"
)

// clickButtonByTextScript clicks the first button-like element whose visible
// text exactly matches one of the candidates, returning the matched text or an
// empty string.
func clickButtonByTextScript(candidateTexts []string) string {
	textsJSON, _ := json.Marshal(candidateTexts)

	return fmt.Sprintf(`(function() {
		const targets = %s.map(t => t.toLowerCase().trim());
		const elements = Array.from(document.querySelectorAll('button, [role="button"], a[role="button"]'));
		for (const target of targets) {
			const match = elements.find(el => (el.innerText || el.textContent || '').trim().toLowerCase() === target);
			if (match) {
				match.click();
				return target;
			}
		}
		return '';
	})()`, textsJSON)
}
