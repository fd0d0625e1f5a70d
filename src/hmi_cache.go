package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Display cache and page state for the HMI.
 *
 * Description:	The audio host keeps sending display updates for
 *		every page, but the HMI only shows one page and
 *		sub-page at a time.  Updates for the visible page go
 *		out immediately (unless they would repaint the same
 *		content); everything else lands in a cache indexed by
 *		page, sub-page and actuator, and is replayed when the
 *		user navigates there.
 *
 *		The replay does not happen on the page-change request
 *		itself but a number of processing ticks later, giving
 *		the HMI time to finish its own page redraw before we
 *		flood it with state.
 *
 *		On some variants the actuators above a threshold are
 *		physically shared between sub-pages; for those the
 *		sub-page component collapses to 0 when caching, and
 *		they match whichever sub-page is active.
 *
 *---------------------------------------------------------------*/

import (
	"strings"
)

const HMI_REPLAY_DELAY_DEFAULT = 10

type hmi_cache_entry struct {
	led_blink      string
	led_brightness string
	label          string
	value          string
	unit           string
	indicator      string
}

type hmi_state struct {
	device *device_descriptor

	page    int
	subpage int

	/* counts processing cycles since a page change, 0 when idle */
	change_tick  int
	replay_delay int

	io_values_requested bool

	cache []*hmi_cache_entry
}

func hmi_state_init(device *device_descriptor, replay_delay int) *hmi_state {

	if replay_delay <= 0 {
		replay_delay = HMI_REPLAY_DELAY_DEFAULT
	}

	return &hmi_state{
		device:       device,
		replay_delay: replay_delay,
		cache:        make([]*hmi_cache_entry, device.Pages*device.Subpages*device.Actuators),
	}
}

func (hmi *hmi_state) cache_index(page int, subpage int, actuator int) int {
	return (page*hmi.device.Subpages+subpage)*hmi.device.Actuators + actuator
}

func (hmi *hmi_state) cache_reset() {
	for i := range hmi.cache {
		hmi.cache[i] = nil
	}
}

/*
 * The payload of every display event starts with the decimal
 * actuator id, then a space and the content.  Anything else is a
 * malformed event and gets dropped.
 */
func (hmi *hmi_state) parse_actuator(msg string) (int, bool) {

	var digits = msg
	if sep := strings.IndexByte(msg, ' '); sep >= 0 {
		digits = msg[:sep]
	}

	if digits == "" {
		return 0, false
	}

	var actuator = 0
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
		actuator = actuator*10 + int(digits[i]-'0')
	}

	if actuator >= hmi.device.Actuators {
		return 0, false
	}

	return actuator, true
}

func truncate(msg string, limit int) string {
	if len(msg) > limit {
		return msg[:limit]
	}
	return msg
}

/*-------------------------------------------------------------------
 *
 * Name:	handle_event
 *
 * Purpose:	Apply one host event to the cache, rendering it to
 *		the HMI when it concerns the visible page and would
 *		actually change something.
 *
 * Inputs:	event	- As read off the incoming ring.
 *
 *		emit	- Writes one frame to the HMI, returns false
 *			  when the port died.
 *
 * Returns:	false only when an emission failed.
 *
 *---------------------------------------------------------------*/

func (hmi *hmi_state) handle_event(event sys_serial_event, emit func(cmd string, payload string, quoted bool) bool) bool {

	switch event.etype {
	case SYS_MSG_SPECIAL_REQ:
		hmi.handle_special_req(event)
		return true

	case SYS_MSG_UNASSIGN:
		hmi.handle_unassign(event)
		return true

	case SYS_MSG_LED_BLINK, SYS_MSG_LED_BRIGHTNESS, SYS_MSG_NAME, SYS_MSG_UNIT,
		SYS_MSG_VALUE, SYS_MSG_WIDGET_INDICATOR, SYS_MSG_POPUP:
		return hmi.handle_display_event(event, emit)

	default:
		// unknown event type, already consumed from the ring
		logger.Debugf("ignoring unknown host event type %d", event.etype)
		return true
	}
}

func (hmi *hmi_state) handle_special_req(event sys_serial_event) {

	switch event.payload {
	case SYS_MSG_SPECIAL_REQ_RESTART:
		hmi.io_values_requested = true
		hmi.page = 0
		hmi.subpage = 0
		hmi.cache_reset()

	case SYS_MSG_SPECIAL_REQ_PAGES:
		if int(event.page) < hmi.device.Pages && int(event.subpage) < hmi.device.Subpages {
			hmi.page = int(event.page)
			hmi.subpage = int(event.subpage)
		}
		hmi.cache_reset()

	default:
		logger.Debugf("ignoring unknown special request '%s'", event.payload)
	}
}

func (hmi *hmi_state) handle_unassign(event sys_serial_event) {

	var page = int(event.page)
	var subpage = int(event.subpage)

	if page >= hmi.device.Pages || subpage >= hmi.device.Subpages {
		return
	}

	var actuator, ok = hmi.parse_actuator(event.payload)
	if !ok {
		return
	}

	if hmi.device.shared_subpage(actuator) {
		subpage = 0
	}

	hmi.cache[hmi.cache_index(page, subpage, actuator)] = nil
}

func (hmi *hmi_state) handle_display_event(event sys_serial_event, emit func(cmd string, payload string, quoted bool) bool) bool {

	var page = int(event.page)
	var subpage = int(event.subpage)

	if page >= hmi.device.Pages || subpage >= hmi.device.Subpages {
		return true
	}

	var actuator, ok = hmi.parse_actuator(event.payload)
	if !ok {
		return true
	}

	var shared = hmi.device.shared_subpage(actuator)
	if shared {
		subpage = 0
	}

	var match_pages = page == hmi.page && (shared || subpage == hmi.subpage)

	// popups pass straight through, they are transient by nature
	if event.etype == SYS_MSG_POPUP {
		if match_pages {
			return emit(CMD_SYS_POPUP, event.payload, true)
		}
		return true
	}

	var index = hmi.cache_index(page, subpage, actuator)
	if hmi.cache[index] == nil {
		hmi.cache[index] = &hmi_cache_entry{}
	}
	var entry = hmi.cache[index]

	var cmd string
	var quoted bool
	var slot *string

	switch event.etype {
	case SYS_MSG_LED_BLINK:
		cmd, quoted, slot = CMD_SYS_LED_BLINK, false, &entry.led_blink
	case SYS_MSG_LED_BRIGHTNESS:
		cmd, quoted, slot = CMD_SYS_LED_BRIGHTNESS, false, &entry.led_brightness
	case SYS_MSG_NAME:
		cmd, quoted, slot = CMD_SYS_DISPLAY_LABEL, true, &entry.label
	case SYS_MSG_UNIT:
		cmd, quoted, slot = CMD_SYS_DISPLAY_UNIT, true, &entry.unit
	case SYS_MSG_VALUE:
		cmd, quoted, slot = CMD_SYS_DISPLAY_VALUE, true, &entry.value
	case SYS_MSG_WIDGET_INDICATOR:
		cmd, quoted, slot = CMD_SYS_WIDGET_INDICATOR, false, &entry.indicator
	}

	var payload = truncate(event.payload, hmi_field_limit(event.etype))
	var content_changed = payload != *slot
	*slot = payload

	if match_pages && content_changed {
		return emit(cmd, payload, quoted)
	}

	return true
}

func hmi_field_limit(etype sys_msg_event_t) int {
	switch etype {
	case SYS_MSG_LED_BLINK, SYS_MSG_LED_BRIGHTNESS:
		return _HMI_LED_SIZE
	case SYS_MSG_WIDGET_INDICATOR:
		return _HMI_INDICATOR_SIZE
	default:
		return _HMI_LABEL_SIZE
	}
}

/*
 * Page changes requested by the HMI itself.  A page change resets
 * the sub-page, a sub-page change leaves the page alone.  Both arm
 * the delayed replay.
 */

func (hmi *hmi_state) set_page(page int) {
	if page == hmi.page {
		return
	}
	hmi.page = page
	hmi.subpage = 0
	hmi.change_tick = 1
}

func (hmi *hmi_state) set_subpage(subpage int) {
	if subpage == hmi.subpage {
		return
	}
	hmi.subpage = subpage
	hmi.change_tick = 1
}

/*-------------------------------------------------------------------
 *
 * Name:	process
 *
 * Purpose:	Advance the page-change tick, replaying the cache
 *		for the newly visible page once the delay elapsed.
 *
 * Returns:	false only when an emission failed.
 *
 *---------------------------------------------------------------*/

func (hmi *hmi_state) process(emit func(cmd string, payload string, quoted bool) bool) bool {

	if hmi.change_tick == 0 {
		return true
	}

	hmi.change_tick++
	if hmi.change_tick < hmi.replay_delay {
		return true
	}
	hmi.change_tick = 0

	return hmi.replay(emit)
}

func (hmi *hmi_state) replay(emit func(cmd string, payload string, quoted bool) bool) bool {

	for actuator := 0; actuator < hmi.device.Actuators; actuator++ {
		var subpage = hmi.subpage
		if hmi.device.shared_subpage(actuator) {
			subpage = 0
		}

		var entry = hmi.cache[hmi.cache_index(hmi.page, subpage, actuator)]
		if entry == nil {
			continue
		}

		var fields = []struct {
			cmd     string
			payload string
			quoted  bool
		}{
			{CMD_SYS_LED_BLINK, entry.led_blink, false},
			{CMD_SYS_LED_BRIGHTNESS, entry.led_brightness, false},
			{CMD_SYS_DISPLAY_LABEL, entry.label, true},
			{CMD_SYS_DISPLAY_UNIT, entry.unit, true},
			{CMD_SYS_DISPLAY_VALUE, entry.value, true},
			{CMD_SYS_WIDGET_INDICATOR, entry.indicator, false},
		}

		for _, field := range fields {
			if field.payload == "" {
				continue
			}
			if !emit(field.cmd, field.payload, field.quoted) {
				return false
			}
		}
	}

	return true
}
