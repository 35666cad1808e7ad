package browser

// snapshotJS keys every element, mirrors live control state into attributes
// and returns the serialized tree with page metadata.
const snapshotJS = `() => {
	window.__formfillSeq = window.__formfillSeq || 0;
	const visible = (el) => {
		if (el.type === 'hidden') return false;
		const s = getComputedStyle(el);
		if (s.display === 'none' || s.visibility === 'hidden') return false;
		return el.getClientRects().length > 0;
	};
	for (const el of document.querySelectorAll('*')) {
		if (!el.hasAttribute('data-formfill-key')) {
			el.setAttribute('data-formfill-key', 'ff' + (++window.__formfillSeq));
		}
		const tag = el.tagName;
		if (tag === 'INPUT' || tag === 'TEXTAREA' || tag === 'SELECT' || tag === 'BUTTON') {
			el.setAttribute('data-formfill-visible', String(visible(el)));
		}
		if (tag === 'INPUT' && (el.type === 'radio' || el.type === 'checkbox')) {
			el.setAttribute('data-formfill-checked', String(el.checked));
		} else if (tag === 'INPUT' || tag === 'TEXTAREA') {
			el.setAttribute('data-formfill-value', el.value);
		} else if (tag === 'SELECT') {
			el.setAttribute('data-formfill-selected', String(el.selectedIndex));
		}
	}
	return {html: document.documentElement.outerHTML, url: location.href, title: document.title};
}`

// actionJS performs one write on the element with the given key. It returns
// false when the element no longer exists.
const actionJS = `(key, op, arg) => {
	const el = document.querySelector('[data-formfill-key="' + CSS.escape(key) + '"]');
	if (!el) return false;
	switch (op) {
	case 'value': {
		const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value');
		if (desc && desc.set) desc.set.call(el, arg); else el.value = arg;
		break;
	}
	case 'checked':
		el.checked = arg;
		break;
	case 'select':
		el.selectedIndex = arg;
		break;
	case 'click':
		el.click();
		break;
	case 'dispatch':
		el.dispatchEvent(new Event(arg, {bubbles: true}));
		break;
	}
	return true;
}`

// listenJS attaches one forwarding listener per element and event. The
// listener reports the element state, plus its radio peers, to the binding.
const listenJS = `(key, ev, binding) => {
	const el = document.querySelector('[data-formfill-key="' + CSS.escape(key) + '"]');
	if (!el) return false;
	el.__formfillWired = el.__formfillWired || {};
	if (el.__formfillWired[ev]) return true;
	el.__formfillWired[ev] = true;
	el.addEventListener(ev, () => {
		const state = {key: key, event: ev, value: '', checked: false, selected: -1, peers: []};
		if (el.tagName === 'SELECT') {
			state.selected = el.selectedIndex;
		} else if ('checked' in el && (el.type === 'radio' || el.type === 'checkbox')) {
			state.checked = !!el.checked;
		} else if ('value' in el) {
			state.value = String(el.value);
		}
		if (el.type === 'radio' && el.name) {
			for (const p of document.querySelectorAll('input[type=radio]')) {
				if (p !== el && p.name === el.name && p.hasAttribute('data-formfill-key')) {
					state.peers.push({key: p.getAttribute('data-formfill-key'), checked: !!p.checked});
				}
			}
		}
		window[binding](state);
	});
	return true;
}`
