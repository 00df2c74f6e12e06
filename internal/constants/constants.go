package constants

const USER_AGENT = "beacon/1.0 (+https://github.com/Amund211/beacon)"
