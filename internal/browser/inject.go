package browser

// injectionStep is one independent way of handing a token to the page.
// Script is a JS function receiving the token followed by Args.
type injectionStep struct {
	Name   string
	Script string
	Args   []any
}

const (
	setResponseFieldsJS = `(token, selectors) => {
		let n = 0;
		document.querySelectorAll(selectors.join(', ')).forEach(ta => {
			ta.value = token;
			ta.innerHTML = token;
			n++;
		});
		return n > 0;
	}`

	setIframeFieldsJS = `(token, selector) => {
		let n = 0;
		document.querySelectorAll(selector).forEach(iframe => {
			try {
				const doc = iframe.contentDocument || iframe.contentWindow.document;
				const ta = doc.querySelector('textarea');
				if (ta) { ta.value = token; n++; }
			} catch (e) {}
		});
		return n > 0;
	}`

	overrideGetResponseJS = `(token) => {
		if (typeof grecaptcha === 'undefined' || !grecaptcha.getResponse) return false;
		grecaptcha.getResponse = () => token;
		return true;
	}`

	clientRegistryJS = `(token, callbacks) => {
		if (typeof ___grecaptcha_cfg === 'undefined' || !___grecaptcha_cfg.clients) return false;
		let hit = false;
		for (const key in ___grecaptcha_cfg.clients) {
			const client = ___grecaptcha_cfg.clients[key];
			if (!client) continue;
			if (client.G && client.G.V) { client.G.V.response = token; hit = true; }
			for (const cb of callbacks) {
				if (typeof client[cb] === 'function') {
					try { client[cb](token); hit = true; } catch (e) {}
				}
			}
		}
		return hit;
	}`

	globalCallbacksJS = `(token, names) => {
		let hit = false;
		for (const name of names) {
			if (typeof window[name] === 'function') {
				try { window[name](token); hit = true; } catch (e) {}
			}
		}
		return hit;
	}`

	checkboxJS = `(token, selector) => {
		let n = 0;
		document.querySelectorAll(selector).forEach(cb => { cb.style.display = 'block'; n++; });
		return n > 0;
	}`

	hiddenFieldJS = `(token, selector) => {
		const field = document.querySelector(selector);
		if (!field) return false;
		field.value = token;
		return true;
	}`
)

// injectionPlan lists the steps in the order they run. Steps whose names are
// not configured are left out.
func injectionPlan(inj Injection) []injectionStep {
	var plan []injectionStep

	if len(inj.ResponseFields) > 0 {
		plan = append(plan, injectionStep{Name: "response fields", Script: setResponseFieldsJS, Args: []any{inj.ResponseFields}})
	}
	if inj.IframeSelector != "" {
		plan = append(plan, injectionStep{Name: "iframe fields", Script: setIframeFieldsJS, Args: []any{inj.IframeSelector}})
	}

	plan = append(plan, injectionStep{Name: "getResponse override", Script: overrideGetResponseJS})

	if len(inj.ClientCallbacks) > 0 {
		plan = append(plan, injectionStep{Name: "client registry", Script: clientRegistryJS, Args: []any{inj.ClientCallbacks}})
	}
	if len(inj.GlobalCallbacks) > 0 {
		plan = append(plan, injectionStep{Name: "global callbacks", Script: globalCallbacksJS, Args: []any{inj.GlobalCallbacks}})
	}
	if inj.CheckboxSelector != "" {
		plan = append(plan, injectionStep{Name: "checkbox mark", Script: checkboxJS, Args: []any{inj.CheckboxSelector}})
	}
	if inj.HiddenFieldSelector != "" {
		plan = append(plan, injectionStep{Name: "hidden field", Script: hiddenFieldJS, Args: []any{inj.HiddenFieldSelector}})
	}

	return plan
}
