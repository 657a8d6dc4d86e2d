package browser

// snapshotScript copies rendered geometry onto the DOM so the static
// extraction heuristics can read it, then returns the document and location
// in one round trip.
const snapshotScript = `(() => {
  for (const img of document.querySelectorAll('img')) {
    const r = img.getBoundingClientRect();
    img.setAttribute('data-igfeed-w', String(Math.round(r.width || img.width || 0)));
    img.setAttribute('data-igfeed-h', String(Math.round(r.height || img.height || 0)));
  }
  for (const div of document.querySelectorAll('div')) {
    const cs = window.getComputedStyle(div);
    if (cs.borderRadius) div.setAttribute('data-igfeed-radius', cs.borderRadius);
    if (cs.display === 'grid' || cs.display === 'flex') div.setAttribute('data-igfeed-display', cs.display);
  }
  return { html: document.documentElement.outerHTML, url: window.location.href };
})()`

// dismissScript clicks the first button of a modal dialog. It reports
// "none" without a dialog and "outside" when the dialog has no button.
const dismissScript = `(() => {
  const dialog = document.querySelector('div[role="dialog"]');
  if (!dialog) return 'none';
  const button = dialog.querySelector('button');
  if (button) { button.click(); return 'button'; }
  return 'outside';
})()`

const scrollHeightScript = `document.body ? document.body.scrollHeight : 0`

const scrollToBottomScript = `window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`
