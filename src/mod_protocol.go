package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Wire protocol constants shared with the HMI and the
 *		audio host.  The serial side carries ASCII commands of
 *		the form "sys_xyz ss data" with a terminating null, the
 *		shared memory side carries small typed event records.
 *
 *---------------------------------------------------------------*/

const _CMD_SYS_PREFIX = "sys_"

/* "sys_xyz", always exactly 7 bytes on the wire. */
const _CMD_SYS_LENGTH = 7

/* "ff" at most, lowercase hexadecimal. */
const _CMD_SYS_DATA_LENGTH = 2

/* Offset of the payload inside a full message: "sys_xyz ss " */
const _CMD_SYS_ARG_OFFSET = _CMD_SYS_LENGTH + _CMD_SYS_DATA_LENGTH + 2

/* A message and its terminating null always fit in one of these. */
const SP_MAX_MSG_SIZE = 0xff

/*
 * Commands arriving from the HMI.
 */

const (
	CMD_SYS_GAIN            = "sys_gan" /* "io channel [value]" */
	CMD_SYS_HP_GAIN         = "sys_hpg" /* "[value]" */
	CMD_SYS_CV_MODE         = "sys_cvi" /* cv/exp input toggle */
	CMD_SYS_EXP_MODE        = "sys_exp" /* expression pedal mode */
	CMD_SYS_CV_OUT_MODE     = "sys_cvo" /* cv/headphone output toggle */
	CMD_SYS_AMIXER_SAVE     = "sys_ams"
	CMD_SYS_BT_STATUS       = "sys_bti"
	CMD_SYS_BT_DISCOVERY    = "sys_btd"
	CMD_SYS_SYSTEMCTL       = "sys_ctl"
	CMD_SYS_VERSION         = "sys_ver"
	CMD_SYS_SERIAL          = "sys_ser"
	CMD_SYS_USB_MODE        = "sys_usb"
	CMD_SYS_NOISE_REMOVAL   = "sys_nrm"
	CMD_SYS_REBOOT          = "sys_rbt"
	CMD_SYS_COMP_MODE       = "sys_cmo"
	CMD_SYS_COMP_RELEASE    = "sys_crl"
	CMD_SYS_PEDALBOARD_GAIN = "sys_pbg"
	CMD_SYS_NG_CHANNEL      = "sys_ngc"
	CMD_SYS_NG_DECAY        = "sys_ngd"
	CMD_SYS_NG_THRESHOLD    = "sys_ngt"
	CMD_SYS_PAGE_CHANGE     = "sys_pgc"
	CMD_SYS_SUBPAGE_CHANGE  = "sys_spc"
)

/*
 * Commands sent to the HMI when rendering display state.
 * The quoted ones carry free text after the actuator id, which gets
 * wrapped in double quotes by encode_sys_msg.
 */

const (
	CMD_SYS_LED_BLINK        = "sys_led"
	CMD_SYS_LED_BRIGHTNESS   = "sys_lbr"
	CMD_SYS_DISPLAY_LABEL    = "sys_lbl" /* quoted */
	CMD_SYS_DISPLAY_UNIT     = "sys_unt" /* quoted */
	CMD_SYS_DISPLAY_VALUE    = "sys_val" /* quoted */
	CMD_SYS_WIDGET_INDICATOR = "sys_wid"
	CMD_SYS_POPUP            = "sys_pop" /* quoted */
)

/*
 * Cached display payload limits, including the actuator prefix.
 */

const (
	_HMI_LED_SIZE       = 31
	_HMI_INDICATOR_SIZE = 31
	_HMI_LABEL_SIZE     = 23
	_HMI_VALUE_SIZE     = 23
	_HMI_UNIT_SIZE      = 23
)

/*
 * Event types used on the shared memory rings.  One byte on the wire,
 * followed by page, subpage and a null terminated payload.
 */

type sys_msg_event_t byte

const (
	SYS_MSG_SPECIAL_REQ         sys_msg_event_t = 1
	SYS_MSG_UNASSIGN            sys_msg_event_t = 2
	SYS_MSG_LED_BLINK           sys_msg_event_t = 3
	SYS_MSG_LED_BRIGHTNESS      sys_msg_event_t = 4
	SYS_MSG_NAME                sys_msg_event_t = 5
	SYS_MSG_UNIT                sys_msg_event_t = 6
	SYS_MSG_VALUE               sys_msg_event_t = 7
	SYS_MSG_WIDGET_INDICATOR    sys_msg_event_t = 8
	SYS_MSG_POPUP               sys_msg_event_t = 9
	SYS_MSG_COMPRESSOR_MODE     sys_msg_event_t = 10
	SYS_MSG_COMPRESSOR_RELEASE  sys_msg_event_t = 11
	SYS_MSG_NOISEGATE_CHANNEL   sys_msg_event_t = 12
	SYS_MSG_NOISEGATE_DECAY     sys_msg_event_t = 13
	SYS_MSG_NOISEGATE_THRESHOLD sys_msg_event_t = 14
	SYS_MSG_PEDALBOARD_GAIN     sys_msg_event_t = 15
)

/*
 * Special request payloads.
 */

const (
	SYS_MSG_SPECIAL_REQ_RESTART = "restart"
	SYS_MSG_SPECIAL_REQ_PAGES   = "pages"
)

/*
 * Flag files and other fixed paths.  The directory part is
 * configurable so tests can point somewhere harmless.
 */

const (
	FLAG_FILE_USB_MULTI_GADGET   = "enable-usb-multi-gadget"
	FLAG_FILE_USB_WINDOWS_COMPAT = "enable-usb-windows-compat"
	FLAG_FILE_NOISE_REMOVAL      = "noise-removal-active"
	AUDIOPROC_FILE               = "audioproc.txt"
)

const DEFAULT_DATA_DIR = "/data"
const DEFAULT_TAG_PATH = "/var/cache/mod/tag"
