package zsign

const usage = `z_sign_offline signs the transaction presented in the hex input block
The transaction data block is generated by an online wallet using the 'z_sendmany_prepare_offline' command

Arguments:
0. Project                 (string, required) Project: arrr=Pirate Chain
1. Version                 (number) The version of the transaction structure. Currently only '1' supported
2. "from_address"        (string, required) The taddr or zaddr to send the funds from.
3. "spending notes"      (array, required) An array of json objects representing the spending notes of the from_address.
    '[{
      "witnessposition":position (numeric, required) spending witness blockchain position
      "witnesspath"    :path     (hex string, required) spending witness blockchain path, 2 chars/hex value
      "note_d"         :d        (hex string, required) Note d component, 2 chars/hex value
      "note_pkd"       :pkd      (hex string, required) Note pkd component, 2 chars/hex value
      "note_r"         :r        (hex string, required) Note r component, 2 chars/hex value
      "value"          :value    (numeric, required) amount stored in the note
      "zip212"         :value    (numeric, required) zip212 status of the note: 0=BeforeZip212, 1=AfterZip212
    }, ... ]'
4. "outputs"             (array, required) An array of json objects representing recipients and the amounts send to them.
    '[{
      "address":address  (string, required) The address is a zaddr
      "amount":amount    (numeric, required) The numeric amount in KMD is the value
      "memo":memo        (hex string, optional) A note about the payment, 2 chars/hex value
    }, ... ]'
5. Minconf                 (numeric, required) Only use funds confirmed at least this many times.
6. Fee                     (numeric, required) The transaction fee
7. Next block height       (numeric, required) Network next block height
8. branch ID               (numeric, required) Network branch ID
9. "anchor"                (hex string, required) Anchor for the witnesses
10. MTX overwintered        (numeric, required) Transaction: Overwintered
11.MTX ExpiryHeight        (numeric, required) Transaction: ExpiryHeight
12.MTX VersionGroupID      (numeric, required) Transaction: VersionGroupID
13.MTX Version             (numeric, required) Transaction: Version
14.ZIP212 enabled          (numeric, required) For outputs: 0=BeforeZip212, 1=AfterZip212
15.Checksum                (numeric, required) Sum of the ASCII values of all the characters in this command
Result:
"sendrawtransaction"     (string) A string containing the transaction data that must be pasted into the online wallet
                           to complete the transaction`

// Usage is the z_sign_offline help text shown for malformed input.
func Usage() string {
	return usage
}
